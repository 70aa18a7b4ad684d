package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/nimasrn/property-marketplace/internal/apperr"
	"github.com/nimasrn/property-marketplace/internal/auth"
	xhttp "github.com/nimasrn/property-marketplace/pkg/http"
	"github.com/nimasrn/property-marketplace/pkg/logger"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type listResponse[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}

// readJSON decodes the body into dst and runs its validate tags.
func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	if err := json.Unmarshal(ctx.PostBody(), dst); err != nil {
		return apperr.Validation("invalid JSON body")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperr.Validation(fmt.Sprintf("field %s failed %s", verrs[0].Field(), verrs[0].Tag()))
		}
		return apperr.Validation(err.Error())
	}
	return nil
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		logger.Error("encode response failed", "path", string(ctx.Path()), "err", err)
		status = xhttp.StatusInternalServerError
		b = []byte(`{"error":"internal server error"}`)
	}
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

// writeError answers with the status for err's kind. Internal details are
// logged and never sent.
func writeError(ctx *xhttp.RequestCtx, err error) {
	status := apperr.HTTPStatus(err)
	if status >= xhttp.StatusInternalServerError {
		logger.Error("request failed",
			"method", string(ctx.Method()),
			"path", string(ctx.Path()),
			"err", err)
	}
	writeJSON(ctx, status, map[string]string{"error": apperr.Public(err)})
}

func actor(ctx *xhttp.RequestCtx) (*auth.Actor, error) {
	a, ok := auth.ActorFrom(ctx)
	if !ok {
		return nil, apperr.Unauthorized("authentication required")
	}
	return a, nil
}

func pathUUID(ctx *xhttp.RequestCtx, name string) (uuid.UUID, error) {
	raw, _ := ctx.UserValue(name).(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Validation(name + " must be a UUID")
	}
	return id, nil
}

func pathString(ctx *xhttp.RequestCtx, name string) string {
	s, _ := ctx.UserValue(name).(string)
	return s
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func queryUUID(ctx *xhttp.RequestCtx, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(query(ctx, key))
	if err != nil {
		return uuid.Nil, apperr.Validation(key + " must be a UUID")
	}
	return id, nil
}

func queryBool(ctx *xhttp.RequestCtx, key string) bool {
	b, _ := strconv.ParseBool(query(ctx, key))
	return b
}

// page reads limit and offset. Bad or negative values fall back to zero and
// the repositories apply their defaults.
func page(ctx *xhttp.RequestCtx) (limit, offset int) {
	if n, err := strconv.Atoi(query(ctx, "limit")); err == nil && n > 0 {
		limit = n
	}
	if n, err := strconv.Atoi(query(ctx, "offset")); err == nil && n > 0 {
		offset = n
	}
	return limit, offset
}
