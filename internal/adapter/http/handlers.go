package http

import (
	"log/slog"
	"net/http"

	"github.com/floodcast/floodcast-api/internal/account"
	"github.com/floodcast/floodcast-api/internal/domain"
	"github.com/gin-gonic/gin"
)

type handlers struct {
	deps   Deps
	logger *slog.Logger
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *handlers) root(c *gin.Context) {
	c.String(http.StatusOK, "FloodCast API")
}

// POST /api/predict
func (h *handlers) predict(c *gin.Context) {
	resp, err := h.deps.Predictions.Predict(c.Request.Context(), c.GetHeader("Authorization"), c.Request.Body)
	if err != nil {
		abortWithError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GET /api/predictions
func (h *handlers) history(c *gin.Context) {
	results, err := h.deps.Predictions.History(c.Request.Context(), c.GetHeader("Authorization"))
	if err != nil {
		abortWithError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, results)
}

// GET /api/weather
func (h *handlers) weather(c *gin.Context) {
	snap, err := h.deps.Weather.Snapshot(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": msgWeatherFailed, "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// POST /register
func (h *handlers) register(c *gin.Context) {
	var reg account.Registration
	if err := c.ShouldBindJSON(&reg); err != nil {
		abortWithError(c, domain.ErrInvalidPayload, "")
		return
	}
	u, err := h.deps.Accounts.Register(c.Request.Context(), reg)
	if err != nil {
		abortWithError(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, u)
}

// POST /login
func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, domain.ErrInvalidPayload, "")
		return
	}
	res, err := h.deps.Accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		abortWithError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /users
func (h *handlers) listUsers(c *gin.Context) {
	users, err := h.deps.Accounts.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, users)
}

// PUT /users/:id
func (h *handlers) updateUser(c *gin.Context) {
	var patch account.Update
	if err := c.ShouldBindJSON(&patch); err != nil {
		abortWithError(c, domain.ErrInvalidPayload, "")
		return
	}
	u, err := h.deps.Accounts.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		abortWithError(c, err, msgUserNotFound)
		return
	}
	c.JSON(http.StatusOK, u)
}

// DELETE /users/:id
func (h *handlers) deleteUser(c *gin.Context) {
	id := c.Param("id")
	if err := h.deps.Accounts.Delete(c.Request.Context(), id); err != nil {
		abortWithError(c, err, msgUserNotFound)
		return
	}
	h.logger.Info("user deleted by admin", "id", id, "by", subjectID(c))
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// GET /predictions
func (h *handlers) listPredictions(c *gin.Context) {
	results, err := h.deps.Records.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, results)
}

// GET /predictions/:id
func (h *handlers) getPrediction(c *gin.Context) {
	result, err := h.deps.Records.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err, msgPredNotFound)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GET /predictions/user/:userId
func (h *handlers) listUserPredictions(c *gin.Context) {
	results, err := h.deps.Records.ListBySubject(c.Request.Context(), c.Param("userId"))
	if err != nil {
		abortWithError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, results)
}

// DELETE /predictions/:id
func (h *handlers) deletePrediction(c *gin.Context) {
	id := c.Param("id")
	if err := h.deps.Records.Delete(c.Request.Context(), id); err != nil {
		abortWithError(c, err, msgPredNotFound)
		return
	}
	h.logger.Info("prediction deleted", "id", id, "by", subjectID(c))
	c.JSON(http.StatusOK, gin.H{"message": "Prediction deleted successfully"})
}

func subjectID(c *gin.Context) string {
	if s, ok := c.Get(subjectKey); ok {
		if subject, ok := s.(domain.Subject); ok {
			return subject.ID
		}
	}
	return ""
}
