package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lukaszgryglicki/butterbrot/internal/butterbrot"
)

// complexValue is a pflag.Value parsing "re,im".
type complexValue struct{ c *butterbrot.Complex }

func (v complexValue) String() string {
	if v.c == nil {
		return ""
	}
	return strconv.FormatFloat(v.c.R, 'g', -1, 64) + "," + strconv.FormatFloat(v.c.I, 'g', -1, 64)
}

func (v complexValue) Set(s string) error {
	c, err := parseComplex(s)
	if err != nil {
		return err
	}
	*v.c = c
	return nil
}

func (complexValue) Type() string { return "re,im" }

func parseComplex(s string) (butterbrot.Complex, error) {
	re, im, ok := strings.Cut(s, ",")
	if !ok {
		return butterbrot.Complex{}, fmt.Errorf("complex %q: want re,im", s)
	}
	r, err := strconv.ParseFloat(strings.TrimSpace(re), 64)
	if err != nil {
		return butterbrot.Complex{}, fmt.Errorf("complex %q: %w", s, err)
	}
	i, err := strconv.ParseFloat(strings.TrimSpace(im), 64)
	if err != nil {
		return butterbrot.Complex{}, fmt.Errorf("complex %q: %w", s, err)
	}
	return butterbrot.Complex{R: r, I: i}, nil
}
