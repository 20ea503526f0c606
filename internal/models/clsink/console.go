package clsink

import (
	"context"

	"resumetracker/internal/models/clvisit"

	"github.com/rs/zerolog"
)

// Console écrit la ligne dans les logs, aucun appel externe
type Console struct {
	logger zerolog.Logger
}

func NewConsole(logger zerolog.Logger) *Console {
	return &Console{logger: logger}
}

func (c *Console) Name() string {
	return "console"
}

func (c *Console) Append(_ context.Context, rec clvisit.Record) error {
	row := rec.Row()
	event := c.logger.Info().Str("mode", "development")
	dict := zerolog.Dict()
	for i, column := range clvisit.Columns {
		dict = dict.Interface(column, row[i])
	}
	event.Dict("row", dict).Msg("DEV: would append row to Google Sheets")
	return nil
}
