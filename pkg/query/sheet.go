package query

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

var ErrBadAddress = errors.New("query: bad cell address")

// Sheet is a sparse grid of text cells addressed like A1, B7, AA12.
type Sheet struct {
	Name  string
	cells map[cellKey]string
}

type cellKey struct{ row, col int }

func NewSheet(name string) *Sheet {
	return &Sheet{Name: name, cells: make(map[cellKey]string)}
}

// Set writes content at addr. Empty content clears the cell.
func (s *Sheet) Set(addr, content string) error {
	r, c, err := CellRC(addr)
	if err != nil {
		return err
	}
	s.SetRC(r, c, content)
	return nil
}

// SetRC writes content at a 1-based row and column.
func (s *Sheet) SetRC(row, col int, content string) {
	k := cellKey{row, col}
	if content == "" {
		delete(s.cells, k)
		return
	}
	s.cells[k] = content
}

func (s *Sheet) Get(addr string) string {
	r, c, err := CellRC(addr)
	if err != nil {
		return ""
	}
	return s.cells[cellKey{r, c}]
}

func (s *Sheet) GetRC(row, col int) string { return s.cells[cellKey{row, col}] }

// Addresses returns the addresses of non-empty cells, row by row.
func (s *Sheet) Addresses() []string {
	keys := s.sorted()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = Address(k.row, k.col)
	}
	return out
}

func (s *Sheet) sorted() []cellKey {
	keys := make([]cellKey, 0, len(s.cells))
	for k := range s.cells {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].row != keys[j].row {
			return keys[i].row < keys[j].row
		}
		return keys[i].col < keys[j].col
	})
	return keys
}

// Size returns the last used row and column.
func (s *Sheet) Size() (rows, cols int) {
	for k := range s.cells {
		rows = max(rows, k.row)
		cols = max(cols, k.col)
	}
	return rows, cols
}

// Rows returns the used range as a dense grid.
func (s *Sheet) Rows() [][]string {
	nr, nc := s.Size()
	out := make([][]string, nr)
	for r := range out {
		out[r] = make([]string, nc)
		for c := range out[r] {
			out[r][c] = s.cells[cellKey{r + 1, c + 1}]
		}
	}
	return out
}

// CSV writes the used range as comma separated values.
func (s *Sheet) CSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(s.Rows()); err != nil {
		return fmt.Errorf("query: write %s: %w", s.Name, err)
	}
	return nil
}

// FindFirst returns the address of the first cell, row by row, whose
// content equals target.
func FindFirst(s *Sheet, target string) (string, bool) {
	for _, k := range s.sorted() {
		if s.cells[k] == target {
			return Address(k.row, k.col), true
		}
	}
	return "", false
}

// CellRC splits a cell address into its 1-based row and column.
func CellRC(addr string) (row, col int, err error) {
	a := strings.ToUpper(strings.TrimSpace(addr))
	i := 0
	for i < len(a) && a[i] >= 'A' && a[i] <= 'Z' {
		col = col*26 + int(a[i]-'A'+1)
		i++
	}
	if i == 0 || i == len(a) {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadAddress, addr)
	}
	for ; i < len(a); i++ {
		if a[i] < '0' || a[i] > '9' {
			return 0, 0, fmt.Errorf("%w: %q", ErrBadAddress, addr)
		}
		row = row*10 + int(a[i]-'0')
	}
	if row == 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadAddress, addr)
	}
	return row, col, nil
}

// Address formats a 1-based row and column as a cell address.
func Address(row, col int) string {
	var letters []byte
	for c := col; c > 0; c = (c - 1) / 26 {
		letters = append([]byte{byte('A' + (c-1)%26)}, letters...)
	}
	return fmt.Sprintf("%s%d", letters, row)
}
