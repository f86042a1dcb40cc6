package http

import (
	"studio-server/internal/curriculum"

	"github.com/gin-gonic/gin"
)

func (h *StudioHandler) addSection(c *gin.Context) {
	creds, ok := credentials(c)
	if !ok {
		return
	}
	id, view, err := h.svc.AddSection(c.Request.Context(), creds, c.Param("sid"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	created(c, id, view)
}

func (h *StudioHandler) moveSection(c *gin.Context) {
	creds, ok := credentials(c)
	if !ok {
		return
	}
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	view, err := h.svc.MoveSection(c.Request.Context(), creds, c.Param("sid"), *req.Index, curriculum.Direction(req.Direction))
	respond(c, view, err)
}

func (h *StudioHandler) updateSectionTitle(c *gin.Context) {
	creds, ok := credentials(c)
	if !ok {
		return
	}
	var req titleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	view, err := h.svc.UpdateSectionTitle(c.Request.Context(), creds, c.Param("sid"), pathID(c, "secid"), *req.Title)
	respond(c, view, err)
}

func (h *StudioHandler) deleteSection(c *gin.Context) {
	creds, ok := credentials(c)
	if !ok {
		return
	}
	view, err := h.svc.DeleteSection(c.Request.Context(), creds, c.Param("sid"), pathID(c, "secid"))
	respond(c, view, err)
}

func (h *StudioHandler) toggleSection(c *gin.Context) {
	creds, ok := credentials(c)
	if !ok {
		return
	}
	view, err := h.svc.ToggleSection(c.Request.Context(), creds, c.Param("sid"), pathID(c, "secid"))
	respond(c, view, err)
}

func (h *StudioHandler) addLesson(c *gin.Context) {
	creds, ok := credentials(c)
	if !ok {
		return
	}
	id, view, err := h.svc.AddLesson(c.Request.Context(), creds, c.Param("sid"), pathID(c, "secid"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	created(c, id, view)
}

func (h *StudioHandler) moveLesson(c *gin.Context) {
	creds, ok := credentials(c)
	if !ok {
		return
	}
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	view, err := h.svc.MoveLesson(c.Request.Context(), creds, c.Param("sid"), pathID(c, "secid"), *req.Index, curriculum.Direction(req.Direction))
	respond(c, view, err)
}

func (h *StudioHandler) updateLesson(c *gin.Context) {
	creds, ok := credentials(c)
	if !ok {
		return
	}
	var req lessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	view, err := h.svc.UpdateLesson(c.Request.Context(), creds, c.Param("sid"), pathID(c, "lid"), req.patch())
	respond(c, view, err)
}

func (h *StudioHandler) deleteLesson(c *gin.Context) {
	creds, ok := credentials(c)
	if !ok {
		return
	}
	view, err := h.svc.DeleteLesson(c.Request.Context(), creds, c.Param("sid"), pathID(c, "lid"))
	respond(c, view, err)
}

func (h *StudioHandler) setLessonType(c *gin.Context) {
	creds, ok := credentials(c)
	if !ok {
		return
	}
	var req lessonTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	view, err := h.svc.SetLessonType(c.Request.Context(), creds, c.Param("sid"), pathID(c, "lid"), curriculum.LessonType(req.Type))
	respond(c, view, err)
}

func (h *StudioHandler) openLesson(c *gin.Context) {
	creds, ok := credentials(c)
	if !ok {
		return
	}
	view, err := h.svc.OpenLesson(c.Request.Context(), creds, c.Param("sid"), pathID(c, "lid"))
	respond(c, view, err)
}

// --- quiz ---

func (h *StudioHandler) updateQuiz(c *gin.Context) {
	creds, ok := credentials(c)
	if !ok {
		return
	}
	var req quizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	patch := curriculum.QuizPatch{Title: req.Title, XPReward: req.XPReward}
	view, err := h.svc.UpdateQuiz(c.Request.Context(), creds, c.Param("sid"), pathID(c, "lid"), patch)
	respond(c, view, err)
}

func (h *StudioHandler) addQuestion(c *gin.Context) {
	creds, ok := credentials(c)
	if !ok {
		return
	}
	id, view, err := h.svc.AddQuestion(c.Request.Context(), creds, c.Param("sid"), pathID(c, "lid"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	created(c, id, view)
}

func (h *StudioHandler) updateQuestion(c *gin.Context) {
	creds, ok := credentials(c)
	if !ok {
		return
	}
	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	patch := curriculum.QuestionPatch{Text: req.Text, Explanation: req.Explanation}
	view, err := h.svc.UpdateQuestion(c.Request.Context(), creds, c.Param("sid"), pathID(c, "lid"), pathID(c, "qid"), patch)
	respond(c, view, err)
}

func (h *StudioHandler) removeQuestion(c *gin.Context) {
	creds, ok := credentials(c)
	if !ok {
		return
	}
	view, err := h.svc.RemoveQuestion(c.Request.Context(), creds, c.Param("sid"), pathID(c, "lid"), pathID(c, "qid"))
	respond(c, view, err)
}

func (h *StudioHandler) addChoice(c *gin.Context) {
	creds, ok := credentials(c)
	if !ok {
		return
	}
	id, view, err := h.svc.AddChoice(c.Request.Context(), creds, c.Param("sid"), pathID(c, "lid"), pathID(c, "qid"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	created(c, id, view)
}

func (h *StudioHandler) updateChoice(c *gin.Context) {
	creds, ok := credentials(c)
	if !ok {
		return
	}
	var req choiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	view, err := h.svc.UpdateChoiceText(c.Request.Context(), creds, c.Param("sid"),
		pathID(c, "lid"), pathID(c, "qid"), pathID(c, "cid"), *req.Text)
	respond(c, view, err)
}

func (h *StudioHandler) removeChoice(c *gin.Context) {
	creds, ok := credentials(c)
	if !ok {
		return
	}
	view, err := h.svc.RemoveChoice(c.Request.Context(), creds, c.Param("sid"),
		pathID(c, "lid"), pathID(c, "qid"), pathID(c, "cid"))
	respond(c, view, err)
}

func (h *StudioHandler) markChoiceCorrect(c *gin.Context) {
	creds, ok := credentials(c)
	if !ok {
		return
	}
	view, err := h.svc.MarkChoiceCorrect(c.Request.Context(), creds, c.Param("sid"),
		pathID(c, "lid"), pathID(c, "qid"), pathID(c, "cid"))
	respond(c, view, err)
}

func (h *StudioHandler) updateAssignment(c *gin.Context) {
	creds, ok := credentials(c)
	if !ok {
		return
	}
	var req assignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	view, err := h.svc.UpdateAssignment(c.Request.Context(), creds, c.Param("sid"), pathID(c, "lid"), req.patch())
	respond(c, view, err)
}
