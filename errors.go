/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"html"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const logDate string = `2006-01-02T15:04:05.000-07:00`

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: logDate,
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	cfg.log.Info().Msgf(format, args...)
}

func errorf(cfg *Config, format string, args ...any) {
	cfg.log.Error().Msgf(format, args...)
}

func newPage(title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="ko"><head><meta charset="utf-8">`)
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", html.EscapeString(title)))
	htmlBody.WriteString(fmt.Sprintf("<body><a href=\"/\">%s</a></body></html>", html.EscapeString(body)))

	return htmlBody.String()
}
