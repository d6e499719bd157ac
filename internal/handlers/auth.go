package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
)

const (
	contextLearner   = "learner"
	contextLearnerID = "user_id"

	HeaderLearnerID   = "X-Learner-ID"
	HeaderLearnerName = "X-Learner-Name"
)

var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// Authenticator resolves the learner behind a request
type Authenticator interface {
	Authenticate(c *gin.Context) (models.Learner, error)
}

// tokenParser is the slice of the casdoor client used for bearer tokens
type tokenParser interface {
	ParseJwtToken(token string) (*casdoorsdk.Claims, error)
}

// CasdoorConfig holds the casdoor application the tokens are issued by
type CasdoorConfig struct {
	Endpoint         string
	ClientID         string
	ClientSecret     string
	Certificate      string
	OrganizationName string
	ApplicationName  string
}

type CasdoorAuthenticator struct {
	parser tokenParser
}

func NewCasdoorAuthenticator(config CasdoorConfig) *CasdoorAuthenticator {
	client := casdoorsdk.NewClient(
		config.Endpoint,
		config.ClientID,
		config.ClientSecret,
		config.Certificate,
		config.OrganizationName,
		config.ApplicationName,
	)
	return &CasdoorAuthenticator{parser: client}
}

func (a *CasdoorAuthenticator) Authenticate(c *gin.Context) (models.Learner, error) {
	header := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(token) == "" {
		return models.Learner{}, ErrMissingCredentials
	}

	claims, err := a.parser.ParseJwtToken(strings.TrimSpace(token))
	if err != nil {
		return models.Learner{}, errors.Join(ErrInvalidToken, err)
	}

	learner := models.Learner{
		ID:          claims.User.Id,
		DisplayName: claims.User.DisplayName,
	}
	if learner.ID == "" && claims.User.Name != "" {
		learner.ID = claims.User.Owner + "/" + claims.User.Name
	}
	if learner.ID == "" {
		return models.Learner{}, ErrInvalidToken
	}
	return learner, nil
}

// HeaderAuthenticator trusts identity headers set by an upstream gateway.
// Only meant for local development and tests.
type HeaderAuthenticator struct{}

func (HeaderAuthenticator) Authenticate(c *gin.Context) (models.Learner, error) {
	id := strings.TrimSpace(c.GetHeader(HeaderLearnerID))
	if id == "" {
		return models.Learner{}, ErrMissingCredentials
	}
	return models.Learner{
		ID:          id,
		DisplayName: strings.TrimSpace(c.GetHeader(HeaderLearnerName)),
	}, nil
}

// AuthMiddleware rejects requests without a learner and stores the learner
// on the gin context for the handlers
func AuthMiddleware(authenticator Authenticator, logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		learner, err := authenticator.Authenticate(c)
		if err != nil {
			logger.Warn("Authentication failed",
				"path", c.Request.URL.Path,
				"error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Learner not authenticated",
				Code:    CodeUnauthenticated,
			})
			return
		}

		c.Set(contextLearner, learner)
		c.Set(contextLearnerID, learner.ID)
		c.Next()
	}
}
