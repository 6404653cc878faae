package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pocketideas/api/internal/models"
	"pocketideas/api/internal/service"
)

const currentUserKey = "current_user"

// Auth resolves the caller's identity from the session cookie and stores the
// user in the request context. Storing the resolved user memoizes the lookup
// for the rest of the request: handlers call CurrentUser and never hit the
// session store again. Requests without a valid session are rejected with 401
// before any handler runs.
func Auth(sessions *service.SessionService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}

		user, err := sessions.Validate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user resolved by Auth for this request.
func CurrentUser(c *gin.Context) (models.User, bool) {
	value, exists := c.Get(currentUserKey)
	if !exists {
		return models.User{}, false
	}
	user, ok := value.(models.User)
	return user, ok
}
