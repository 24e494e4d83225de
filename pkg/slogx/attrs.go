package slogx

import "log/slog"

// Error returns a slog attribute for an error value under the "error" key.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}
