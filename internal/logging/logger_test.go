package logging

import (
	"errors"
	"testing"
)

func TestNoOp_DiscardsWithoutPanicking(t *testing.T) {
	l := NoOp()
	l.Info("hello", "k", "v")
	l.Error(errors.New("boom"), "failed", "k", "v")
}

type spyLogger struct {
	infos  []string
	errors []string
}

func (s *spyLogger) Info(msg string, kv ...any)         { s.infos = append(s.infos, msg) }
func (s *spyLogger) Error(err error, msg string, kv ...any) { s.errors = append(s.errors, msg) }

func TestLogger_SatisfiesInterface(t *testing.T) {
	var l Logger = &spyLogger{}
	l.Info("starting sync")
	l.Error(errors.New("create failed"), "create page")

	s := l.(*spyLogger)
	if len(s.infos) != 1 || s.infos[0] != "starting sync" {
		t.Errorf("unexpected infos: %+v", s.infos)
	}
	if len(s.errors) != 1 || s.errors[0] != "create page" {
		t.Errorf("unexpected errors: %+v", s.errors)
	}
}
