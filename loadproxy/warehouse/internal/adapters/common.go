package adapters

import "database/sql"

// stdRows wraps standard library sql.Rows to implement DBRows interface.
type stdRows struct {
	rows *sql.Rows
}

func (s *stdRows) Next() bool {
	return s.rows.Next()
}

func (s *stdRows) Err() error {
	return s.rows.Err()
}

func (s *stdRows) Close() error {
	return s.rows.Close()
}

// Drain reads every row of rows without decoding it and closes rows.
// It returns the number of rows read.
func Drain(rows DBRows) (int64, error) {
	var n int64
	for rows.Next() {
		n++
	}

	iterErr := rows.Err()
	closeErr := rows.Close()

	if iterErr != nil {
		return n, iterErr
	}

	return n, closeErr
}
