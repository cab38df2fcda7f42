/*
Copyright © 2026 andrewhn
*/

package main

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// Domain errors reported back to the acting player. The sentinel text doubles
// as the wire reason string.
var (
	errPlayerNotFound   = errors.New("player-not-found")
	errGameNotFound     = errors.New("game-not-found")
	errGameInProgress   = errors.New("game-in-progress")
	errMalformedPayload = errors.New("parsing-json")
)

var wireErrors = []error{
	errPlayerNotFound,
	errGameNotFound,
	errGameInProgress,
	errMalformedPayload,
}

// reason maps an error to its wire reason. Anything unmapped is a state-model
// bug, not bad input, and is reported as "unknown".
func reason(err error) (string, bool) {
	for _, known := range wireErrors {
		if errors.Is(err, known) {
			return known.Error(), true
		}
	}

	return "unknown", false
}

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

func newPage(title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", title))
	htmlBody.WriteString(fmt.Sprintf("<body><a href=\"/\">%s</a></body></html>", body))

	return htmlBody.String()
}
