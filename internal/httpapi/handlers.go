package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/docbridge/docbridge/internal/apperr"
	"github.com/docbridge/docbridge/internal/artifact"
	"github.com/docbridge/docbridge/internal/chat"
	"github.com/docbridge/docbridge/internal/consultation"
	"github.com/docbridge/docbridge/internal/doctor"
	"github.com/docbridge/docbridge/internal/identity"
	"github.com/docbridge/docbridge/internal/models"
	"github.com/docbridge/docbridge/internal/rating"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (a *API) handleListDoctors(c *gin.Context) {
	listings, err := doctor.ListComplete(c.Request.Context(), a.DB, a.Directory)
	if err != nil {
		a.Logger.Error("list doctors", zap.Error(err))
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, listings)
}

func (a *API) handleListDoctorRatings(c *gin.Context) {
	views, err := rating.ListForDoctor(c.Request.Context(), a.DB, a.Directory, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (a *API) handleGetProfile(c *gin.Context) {
	profile, err := doctor.GetProfile(a.DB, c.GetString(ctxUserID))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (a *API) handleUpsertProfile(c *gin.Context) {
	var req struct {
		Category     string `json:"category"`
		Experience   int    `json:"experience"`
		Bio          string `json:"bio"`
		ProfileImage string `json:"profileImage"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", apperr.ErrValidation, err))
		return
	}
	profile, err := doctor.UpsertProfile(a.DB, c.GetString(ctxUserID), doctor.ProfileOpts{
		Category:     req.Category,
		Experience:   req.Experience,
		Bio:          req.Bio,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (a *API) handlePredict(c *gin.Context) {
	var req struct {
		Symptoms []string `json:"symptoms"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", apperr.ErrValidation, err))
		return
	}

	preds, err := a.Predictor.Predict(c.Request.Context(), req.Symptoms)
	if err != nil {
		a.Logger.Error("predict", zap.Error(err))
		writeError(c, err)
		return
	}
	art, err := artifact.Create(a.DB, c.GetString(ctxUserID), req.Symptoms, preds)
	if err != nil {
		writeError(c, err)
		return
	}
	view, err := artifactView(art)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (a *API) handleListArtifacts(c *gin.Context) {
	artifacts, err := artifact.ListForPatient(a.DB, c.GetString(ctxUserID))
	if err != nil {
		writeError(c, err)
		return
	}
	views := make([]gin.H, 0, len(artifacts))
	for i := range artifacts {
		v, err := artifactView(&artifacts[i])
		if err != nil {
			writeError(c, err)
			return
		}
		views = append(views, v)
	}
	c.JSON(http.StatusOK, views)
}

func (a *API) handleGetArtifact(c *gin.Context) {
	art, err := artifact.Get(a.DB, c.Param("id"), c.GetString(ctxUserID))
	if err != nil {
		writeError(c, err)
		return
	}
	view, err := artifactView(art)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (a *API) handleArtifactPDF(c *gin.Context) {
	art, err := artifact.Get(a.DB, c.Param("id"), c.GetString(ctxUserID))
	if err != nil {
		writeError(c, err)
		return
	}
	data, err := artifact.RenderPDF(art)
	if err != nil {
		a.Logger.Error("render pdf", zap.Error(err))
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=report_%s.pdf", art.ID))
	c.Data(http.StatusOK, "application/pdf", data)
}

func (a *API) handleCreateConsultation(c *gin.Context) {
	var req struct {
		DoctorID    string              `json:"doctorId"`
		ArtifactID  string              `json:"artifactId"`
		Message     string              `json:"message"`
		Attachments []models.Attachment `json:"attachments"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", apperr.ErrValidation, err))
		return
	}
	cons, err := consultation.Create(a.DB, consultation.CreateOpts{
		PatientID:   c.GetString(ctxUserID),
		DoctorID:    req.DoctorID,
		ArtifactID:  req.ArtifactID,
		Message:     req.Message,
		Attachments: req.Attachments,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	view, err := a.consultationView(c.Request.Context(), cons, nil)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (a *API) handleListConsultations(c *gin.Context) {
	userID := c.GetString(ctxUserID)
	if c.GetString(ctxRole) == identity.RoleDoctor {
		list, err := consultation.ListForDoctor(a.DB, userID)
		if err != nil {
			writeError(c, err)
			return
		}
		users, err := a.resolveParties(c.Request.Context(), list)
		if err != nil {
			writeError(c, err)
			return
		}
		views := make([]gin.H, 0, len(list))
		for i := range list {
			v, err := consultationViewWith(&list[i], users, nil)
			if err != nil {
				writeError(c, err)
				return
			}
			views = append(views, v)
		}
		c.JSON(http.StatusOK, views)
		return
	}

	list, err := consultation.ListForPatient(a.DB, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	cons := make([]models.Consultation, len(list))
	for i := range list {
		cons[i] = list[i].Consultation
	}
	users, err := a.resolveParties(c.Request.Context(), cons)
	if err != nil {
		writeError(c, err)
		return
	}
	views := make([]gin.H, 0, len(list))
	for i := range list {
		v, err := consultationViewWith(&list[i].Consultation, users, list[i].Rating)
		if err != nil {
			writeError(c, err)
			return
		}
		views = append(views, v)
	}
	c.JSON(http.StatusOK, views)
}

func (a *API) handleGetConsultation(c *gin.Context) {
	cons, err := consultation.Get(a.DB, c.Param("id"), c.GetString(ctxUserID))
	if err != nil {
		writeError(c, err)
		return
	}
	view, err := a.consultationView(c.Request.Context(), cons, nil)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (a *API) handleTransition(c *gin.Context) {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", apperr.ErrValidation, err))
		return
	}
	cons, err := consultation.Transition(a.DB, a.Bus, c.Param("id"), c.GetString(ctxUserID), req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	view, err := a.consultationView(c.Request.Context(), cons, nil)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (a *API) handleListMessages(c *gin.Context) {
	views, err := chat.List(c.Request.Context(), a.DB, a.Directory, c.Param("id"), c.GetString(ctxUserID))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (a *API) handleSendMessage(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", apperr.ErrValidation, err))
		return
	}
	view, err := chat.Send(c.Request.Context(), a.DB, a.Directory, c.Param("id"), c.GetString(ctxUserID), req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (a *API) handleSubmitRating(c *gin.Context) {
	var req struct {
		Score  int    `json:"score"`
		Review string `json:"review"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", apperr.ErrValidation, err))
		return
	}
	r, err := rating.Submit(a.DB, a.Bus, c.Param("id"), c.GetString(ctxUserID), req.Score, req.Review)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// artifactView adds the decoded payload to an artifact's JSON shape.
func artifactView(a *models.Artifact) (gin.H, error) {
	symptoms, err := a.Symptoms()
	if err != nil {
		return nil, fmt.Errorf("httpapi: decode symptoms: %w", err)
	}
	preds, err := a.Predictions()
	if err != nil {
		return nil, fmt.Errorf("httpapi: decode predictions: %w", err)
	}
	return gin.H{
		"id":          a.ID,
		"patientId":   a.PatientID,
		"symptoms":    symptoms,
		"predictions": preds,
		"createdAt":   a.CreatedAt,
	}, nil
}

// resolveParties looks up the display names of every party across a set
// of consultations in one directory call.
func (a *API) resolveParties(ctx context.Context, cons []models.Consultation) (map[string]identity.User, error) {
	if a.Directory == nil || len(cons) == 0 {
		return map[string]identity.User{}, nil
	}
	seen := make(map[string]bool, 2*len(cons))
	ids := make([]string, 0, 2*len(cons))
	for i := range cons {
		for _, id := range []string{cons[i].PatientID, cons[i].DoctorID} {
			if id != "" && !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	users, err := a.Directory.Lookup(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("httpapi: resolve parties: %w", err)
	}
	return users, nil
}

// consultationView builds the full JSON shape of one consultation.
func (a *API) consultationView(ctx context.Context, c *models.Consultation, r *models.Rating) (gin.H, error) {
	users, err := a.resolveParties(ctx, []models.Consultation{*c})
	if err != nil {
		return nil, err
	}
	return consultationViewWith(c, users, r)
}

// consultationViewWith renders a consultation with its decoded payload
// snapshot, party display names, and the patient's rating when present.
// Every consumer-facing read returns this shape; the snapshot is never
// elided from list responses.
func consultationViewWith(c *models.Consultation, users map[string]identity.User, r *models.Rating) (gin.H, error) {
	symptoms, err := c.Symptoms()
	if err != nil {
		return nil, fmt.Errorf("httpapi: decode symptoms: %w", err)
	}
	preds, err := c.Predictions()
	if err != nil {
		return nil, fmt.Errorf("httpapi: decode predictions: %w", err)
	}
	atts, err := c.Attachments()
	if err != nil {
		return nil, fmt.Errorf("httpapi: decode attachments: %w", err)
	}
	view := gin.H{
		"id":          c.ID,
		"patientId":   c.PatientID,
		"doctorId":    c.DoctorID,
		"artifactId":  c.ArtifactID,
		"symptoms":    symptoms,
		"predictions": preds,
		"message":     c.Message,
		"attachments": atts,
		"status":      c.Status,
		"createdAt":   c.CreatedAt,
		"updatedAt":   c.UpdatedAt,
	}
	if u, ok := users[c.PatientID]; ok {
		view["patientName"] = u.Name
	}
	if u, ok := users[c.DoctorID]; ok {
		view["doctorName"] = u.Name
	}
	if r != nil {
		view["rating"] = r
	}
	return view, nil
}
