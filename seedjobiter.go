package funes

import (
	"encoding/csv"
	"io"
	"strconv"
)

type seedJobIter struct {
	store *ProjectStore
	name  string
	r     io.ReadCloser
	csv   *csv.Reader
	line  int
}

// NewSeedJobIter returns a JobIter that creates jobs from a seed list with
// one repository per line. A line holds either a single endpoint, or an
// endpoint and an explicit decimal project id. Malformed lines yield an
// ErrInvalidSeedLine naming the source and line number; they do not stop
// the iterator.
func NewSeedJobIter(name string, r io.ReadCloser, store *ProjectStore) JobIter {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	return &seedJobIter{
		store: store,
		name:  name,
		r:     r,
		csv:   cr,
	}
}

func (i *seedJobIter) Next() (*Job, error) {
	record, err := i.csv.Read()
	if err == io.EOF {
		return nil, io.EOF
	}

	if err != nil {
		line := i.line + 1
		if pe, ok := err.(*csv.ParseError); ok {
			line = pe.Line
		}

		i.line = line
		return nil, ErrInvalidSeedLine.Wrap(err, i.name, line)
	}

	i.line, _ = i.csv.FieldPos(0)

	switch len(record) {
	case 1:
		if record[0] == "" {
			return nil, ErrInvalidSeedLine.New(i.name, i.line)
		}

		p := i.store.Create(record[0])
		return &Job{ProjectID: p.ID}, nil
	case 2:
		id, err := strconv.ParseInt(record[1], 10, 64)
		if err != nil || id < 0 || record[0] == "" {
			return nil, ErrInvalidSeedLine.New(i.name, i.line)
		}

		p, err := i.store.CreateWithID(record[0], id)
		if err != nil {
			return nil, ErrInvalidSeedLine.Wrap(err, i.name, i.line)
		}

		return &Job{ProjectID: p.ID}, nil
	default:
		return nil, ErrInvalidSeedLine.New(i.name, i.line)
	}
}

// Close closes the underlying reader.
func (i *seedJobIter) Close() error {
	return i.r.Close()
}
