package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mehmetfatiherdem/collaborative-pixel-art-canvas/internal/identity"
)

type verifyTokenRequest struct {
	Token string `json:"token"`
}

type verifiedUser struct {
	Sub   string `json:"sub"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// verifyTokenHandler checks an identity token over plain HTTP, mirroring the
// websocket authentication path.
func verifyTokenHandler(verifier identity.Verifier, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req verifyTokenRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "token is required"})
			return
		}

		id, err := verifier.Verify(c.Request.Context(), req.Token)
		if err != nil {
			logger.Debug().Err(err).Msg("token verification failed")
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"user": verifiedUser{
				Sub:   id.Subject,
				Name:  id.Name,
				Email: id.Email,
			},
		})
	}
}
