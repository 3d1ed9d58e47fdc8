package ilerr

import (
	"fmt"
	"log/slog"
	"strings"
)

// Errors accumulates inference failures in the order they were found.
// A nil *Errors is an empty list
type Errors struct {
	errs []InferError
}

func (r *Errors) With(err ...InferError) *Errors {
	if r == nil {
		return &Errors{errs: err}
	}
	r.errs = append(r.errs, err...)
	return r
}

func (r *Errors) Merge(err *Errors) *Errors {
	if r == nil {
		return err
	}
	if err == nil || len(err.errs) == 0 {
		return r
	}
	return r.With(err.errs...)
}

func (r *Errors) Errors() []InferError {
	if r == nil {
		return nil
	}
	return r.errs
}

func (r *Errors) Len() int {
	if r == nil {
		return 0
	}
	return len(r.errs)
}

func (r *Errors) HasError() bool {
	return r.Len() > 0
}

// HasCode reports whether any accumulated error carries code
func (r *Errors) HasCode(code ErrCode) bool {
	for _, err := range r.Errors() {
		if err.Code() == code {
			return true
		}
	}
	return false
}

// Error renders every error on its own line, with its code
func (r *Errors) Error() string {
	lines := make([]string, 0, r.Len())
	for _, err := range r.Errors() {
		lines = append(lines, FormatWithCode(err))
	}
	return strings.Join(lines, "\n")
}

func (r *Errors) LogValue() slog.Value {
	var vals []slog.Attr
	for i, v := range r.Errors() {
		vals = append(vals, slog.Attr{
			Key: fmt.Sprint("e", i),
			Value: slog.GroupValue(
				slog.Attr{
					Key:   "msg",
					Value: slog.StringValue(FormatWithCode(v)),
				},
			),
		})
	}
	return slog.GroupValue(vals...)
}
