package regscan

import (
	"github.com/dlclark/regscan/internal/logger"
)

var (
	lFsm     = logger.DefaultLogger.NewFacility("fsm", "Automaton construction and algebra")
	lCompile = logger.DefaultLogger.NewFacility("compile", "Determinization and table layout")
	lLexer   = logger.DefaultLogger.NewFacility("lexer", "Pattern translation")
)
