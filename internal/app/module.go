package app

import (
	"context"
	"fmt"

	"github.com/shandysiswandi/sigil/internal/authenticator"
	"github.com/shandysiswandi/sigil/internal/authenticator/usecase"
)

func (a *App) initModules() error {
	uc, err := authenticator.New(a.ctx, authenticator.Dependency{
		DBConn:    a.dbConn,
		BoltStore: a.boltStore,
		Storage:   a.storage,
		Archive: usecase.ArchiveConfig{
			Bucket: a.config.GetString("archive.bucket"),
			Prefix: a.config.GetString("archive.prefix"),
			Keep:   a.config.GetInt("archive.keep"),
		},
		QRSize:     a.config.GetInt("qrcode.size"),
		Instrument: a.ins,
		UUID:       a.uuid,
		Clock:      a.clock,
		Validator:  a.validator,
	})
	if err != nil {
		return fmt.Errorf("init module authenticator: %w", err)
	}

	a.authenticator = uc
	a.addCloser("Config", func(context.Context) error {
		return a.config.Close()
	})
	return nil
}
