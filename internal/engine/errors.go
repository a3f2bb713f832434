package engine

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/aleister1102/cfgswitch/internal/common"
)

var (
	errHistoryDisabled = fmt.Errorf("%w: switch history is disabled", common.ErrInvalidConfiguration)
	errNoExportPath    = fmt.Errorf("%w: no export path given and no export directory configured", common.ErrInvalidConfiguration)
)

func exportFileName(dir string, at time.Time) string {
	return filepath.Join(dir, "switch-history-"+at.Format("20060102-150405")+".parquet")
}
