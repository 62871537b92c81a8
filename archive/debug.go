package archive

import (
	"github.com/dlclark/regscan/internal/logger"
)

var l = logger.DefaultLogger.NewFacility("archive", "Scanner archive reading and writing")
