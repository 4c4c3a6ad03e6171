// Package xref finds inline reference markers of the form [[target-id]] in node content.
package xref

import (
	"context"
	"regexp"

	"github.com/sirupsen/logrus"
)

// markerPattern matches the shortest [[...]] span; the target is the text between the brackets.
var markerPattern = regexp.MustCompile(`\[\[(.*?)\]\]`)

// Registrar stores an identifier for a node row.
type Registrar interface {
	InsertIdentifier(ctx context.Context, id string, nodeRowID int64) error
}

// Extract returns the reference targets in texts, in order of appearance.
// Targets are kept verbatim, duplicates included; only empty markers are dropped.
func Extract(texts ...string) []string {
	var targets []string
	for _, text := range texts {
		for _, match := range markerPattern.FindAllStringSubmatch(text, -1) {
			if match[1] == "" {
				continue
			}
			targets = append(targets, match[1])
		}
	}

	return targets
}

// Register binds every reference target found in texts to the containing node row.
// The texts are only read. It returns the number of identifiers registered.
func Register(ctx context.Context, r Registrar, nodeRowID int64, texts ...string) (int, error) {
	targets := Extract(texts...)
	for _, target := range targets {
		if err := r.InsertIdentifier(ctx, target, nodeRowID); err != nil {
			return 0, err
		}
		logrus.Debugf("reference %s -> row %d", target, nodeRowID)
	}

	return len(targets), nil
}
