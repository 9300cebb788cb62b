package main

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/driver"
	"github.com/joshuapare/heapkit/internal/trace"
)

// replay runs the trace at path to completion and returns the live session.
// The caller closes it.
func replay(path string, cfg driver.Config) (*driver.Session, error) {
	tr, err := trace.ParseFile(path)
	if err != nil {
		return nil, err
	}
	printVerbose("Replaying %s (%d ops, %d ids)\n", tr.Name, len(tr.Ops), tr.NumIDs)

	s, err := driver.NewSession(tr, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", tr.Name, err)
	}
	for !s.Done() {
		if _, err := s.Step(); err != nil {
			s.Close()
			return nil, fmt.Errorf("%s: %w", tr.Name, err)
		}
	}
	return s, nil
}
