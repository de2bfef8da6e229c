package fakepostgres

import (
	"net"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgproto3"
)

const (
	selectValue    = "42"
	int4OID        = 23
	txStatusIdle   = 'I'
	sslNotAccepted = 'N'
)

// parameters are reported after authentication; pgx refuses simple-protocol queries without the first two.
var parameters = map[string]string{
	"standard_conforming_strings": "on",
	"client_encoding":             "UTF8",
	"server_version":              "8.0.2",
}

var parameterOrder = []string{"standard_conforming_strings", "client_encoding", "server_version"}

// Server accepts Postgres sessions on a loopback port.
type Server struct {
	listener net.Listener
	wg       sync.WaitGroup

	mu       sync.Mutex
	conns    map[net.Conn]struct{}
	sessions int
	active   int
	queries  []string
	failures map[string]string
}

// NewServer starts listening on 127.0.0.1 with a random port.
func NewServer() (*Server, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}

	s := &Server{
		listener: listener,
		conns:    make(map[net.Conn]struct{}),
		failures: make(map[string]string),
	}

	s.wg.Add(1)
	go s.accept()

	return s, nil
}

// Host returns the listen host.
func (s *Server) Host() string {
	return s.listener.Addr().(*net.TCPAddr).IP.String()
}

// Port returns the listen port.
func (s *Server) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

// FailQuery makes query answer with an ERROR carrying message.
func (s *Server) FailQuery(query, message string) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures[query] = message

	return s
}

// Sessions returns how many sessions completed the startup handshake.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions
}

// ActiveSessions returns how many sessions are still open.
func (s *Server) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.active
}

// Queries returns every non-empty statement received, in arrival order.
func (s *Server) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.queries...)
}

// Close stops accepting and drops every open session.
func (s *Server) Close() error {
	err := s.listener.Close()

	s.mu.Lock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()

	return err
}

func (s *Server) accept() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}

		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.serve(conn)
	}
}

func (s *Server) serve(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	backend := pgproto3.NewBackend(conn, conn)

	if !s.handshake(conn, backend) {
		return
	}

	s.mu.Lock()
	s.sessions++
	s.active++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.active--
		s.mu.Unlock()
	}()

	for {
		msg, err := backend.Receive()
		if err != nil {
			return
		}

		switch m := msg.(type) {
		case *pgproto3.Query:
			s.answer(backend, m.String)
			if backend.Flush() != nil {
				return
			}

		case *pgproto3.Terminate:
			return
		}
	}
}

func (s *Server) handshake(conn net.Conn, backend *pgproto3.Backend) bool {
	for {
		msg, err := backend.ReceiveStartupMessage()
		if err != nil {
			return false
		}

		switch msg.(type) {
		case *pgproto3.SSLRequest, *pgproto3.GSSEncRequest:
			if _, err = conn.Write([]byte{sslNotAccepted}); err != nil {
				return false
			}

		case *pgproto3.StartupMessage:
			backend.Send(&pgproto3.AuthenticationOk{})
			for _, name := range parameterOrder {
				backend.Send(&pgproto3.ParameterStatus{Name: name, Value: parameters[name]})
			}
			backend.Send(&pgproto3.ReadyForQuery{TxStatus: txStatusIdle})

			return backend.Flush() == nil

		default:
			return false
		}
	}
}

func (s *Server) answer(backend *pgproto3.Backend, query string) {
	defer backend.Send(&pgproto3.ReadyForQuery{TxStatus: txStatusIdle})

	statement := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(query), ";"))
	if statement == "" {
		backend.Send(&pgproto3.EmptyQueryResponse{})
		return
	}

	s.mu.Lock()
	s.queries = append(s.queries, query)
	message, fail := s.failures[query]
	s.mu.Unlock()

	if fail {
		backend.Send(&pgproto3.ErrorResponse{Severity: "ERROR", Code: "42601", Message: message})
		return
	}

	if !strings.HasPrefix(strings.ToUpper(statement), "SELECT") {
		backend.Send(&pgproto3.CommandComplete{CommandTag: []byte(firstWord(statement))})
		return
	}

	backend.Send(&pgproto3.RowDescription{Fields: []pgproto3.FieldDescription{{
		Name:         []byte("?column?"),
		DataTypeOID:  int4OID,
		DataTypeSize: 4,
		TypeModifier: -1,
	}}})
	backend.Send(&pgproto3.DataRow{Values: [][]byte{[]byte(selectValue)}})
	backend.Send(&pgproto3.CommandComplete{CommandTag: []byte("SELECT 1")})
}

func firstWord(statement string) string {
	if fields := strings.Fields(statement); len(fields) > 0 {
		return strings.ToUpper(fields[0])
	}

	return ""
}
