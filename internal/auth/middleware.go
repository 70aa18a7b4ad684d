package auth

import (
	"encoding/json"

	"github.com/nimasrn/property-marketplace/internal/apperr"
	"github.com/nimasrn/property-marketplace/internal/model"
	"github.com/valyala/fasthttp"
)

const actorKey = "auth.actor"

// Authenticate rejects requests without a valid bearer token and stores the
// caller for ActorFrom.
func (t *Tokens) Authenticate(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		raw, err := BearerToken(string(ctx.Request.Header.Peek(fasthttp.HeaderAuthorization)))
		if err != nil {
			deny(ctx, apperr.Unauthorized("authentication required"))
			return
		}
		actor, err := t.Verify(raw)
		if err != nil {
			deny(ctx, apperr.Unauthorized("invalid or expired token"))
			return
		}
		ctx.SetUserValue(actorKey, actor)
		next(ctx)
	}
}

// RequireRole lets the request through only for the given roles. It must run
// inside Authenticate.
func RequireRole(roles ...model.Role) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			actor, ok := ActorFrom(ctx)
			if !ok {
				deny(ctx, apperr.Unauthorized("authentication required"))
				return
			}
			if !actor.Is(roles...) {
				deny(ctx, apperr.Forbidden("insufficient role"))
				return
			}
			next(ctx)
		}
	}
}

func ActorFrom(ctx *fasthttp.RequestCtx) (*Actor, bool) {
	actor, ok := ctx.UserValue(actorKey).(*Actor)
	return actor, ok && actor != nil
}

func deny(ctx *fasthttp.RequestCtx, err *apperr.Error) {
	body, _ := json.Marshal(map[string]string{"error": err.Message})
	ctx.SetStatusCode(apperr.HTTPStatus(err))
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}
