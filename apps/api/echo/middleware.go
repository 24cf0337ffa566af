package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mentora/core"
	"github.com/trezcool/mentora/core/quiz"
)

func adminMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin && contextHasAnyRole(ctx, roles) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// sessionOwnerMiddleware hides sessions of other users from non-admins, answering with `hidden`:
// the error the route gives for a session that does not exist.
// Unknown sessions go through: the handler reports them the way the quiz engine does.
func sessionOwnerMiddleware(svc quiz.Service, hidden error) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}

			sess, err := svc.GetSession(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if core.IsNotFound(err) {
					return next(ctx)
				}
				return errors.Wrap(err, "getting session")
			}
			if sess.UserID != claims.Subject && !claims.IsAdmin {
				return hidden
			}
			return next(ctx)
		}
	}
}
