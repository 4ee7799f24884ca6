package server

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/homeroomhq/homeroom/internal/codec"
	"github.com/homeroomhq/homeroom/internal/store"
	"github.com/homeroomhq/homeroom/pkg/models"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator returns the shared validator. Field names in messages are the
// JSON names clients send.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// invalidError is a client mistake, reported as 400.
type invalidError struct {
	msg string
}

func (e *invalidError) Error() string { return e.msg }

func invalid(format string, args ...any) error {
	return &invalidError{msg: fmt.Sprintf(format, args...)}
}

func validateStruct(v any) error {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return invalid("%v", err)
	}
	msgs := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		msgs[i] = translateError(fe)
	}
	return &invalidError{msg: strings.Join(msgs, "; ")}
}

func translateError(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "url":
		return field + " must be a valid URL"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	case "datetime":
		return fmt.Sprintf("%s must match the layout %s", field, param)
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}

// normalize decodes doc into the typed record, validates it and re-encodes
// it, so stored documents only carry known fields in canonical form.
func normalize[T any](doc store.Document, extra func(T) error) (store.Document, error) {
	var v T
	if err := codec.Convert(doc, &v); err != nil {
		return nil, invalid("malformed %s: %v", typeName[T](), err)
	}
	if err := validateStruct(v); err != nil {
		return nil, err
	}
	if extra != nil {
		if err := extra(v); err != nil {
			return nil, err
		}
	}
	var out store.Document
	if err := codec.Convert(v, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func typeName[T any]() string {
	return strings.ToLower(reflect.TypeFor[T]().Name())
}

func (s *Server) check(ctx context.Context, kind models.Kind, doc store.Document) (store.Document, error) {
	switch kind {
	case models.KindBoard:
		return normalize[models.Board](doc, nil)
	case models.KindBoardItem:
		return normalize[models.BoardItem](doc, nil)
	case models.KindResource:
		return normalize(doc, checkResource)
	case models.KindLesson:
		return normalize[models.Lesson](doc, nil)
	case models.KindPlanner:
		return normalize(doc, checkPlanner)
	case models.KindPlannerItem:
		return normalize(doc, func(item models.PlannerItem) error {
			return s.checkPlannerItem(ctx, item)
		})
	}
	return nil, fmt.Errorf("%w: %q", models.ErrUnknownKind, kind)
}

func checkResource(r models.Resource) error {
	if !r.HasURL() && !r.HasFile() {
		return invalid("resource needs a url or a filePath")
	}
	return nil
}

func checkPlanner(p models.Planner) error {
	switch {
	case p.StartDate.IsZero():
		return invalid("startDate is required")
	case p.EndDate.IsZero():
		return invalid("endDate is required")
	case p.EndDate.Before(p.StartDate):
		return invalid("endDate must not be before startDate")
	}
	return nil
}

func (s *Server) checkPlannerItem(ctx context.Context, item models.PlannerItem) error {
	if item.Date.IsZero() {
		return invalid("date is required")
	}
	if item.StartTime != "" && item.EndTime != "" && item.EndTime < item.StartTime {
		return invalid("endTime must not be before startTime")
	}
	if item.LessonID.IsZero() {
		return nil
	}
	_, err := s.store.Get(ctx, store.Key{Kind: models.KindLesson, ID: item.LessonID})
	if errors.Is(err, store.ErrNotFound) {
		return invalid("lesson %s does not exist", item.LessonID)
	}
	return err
}
