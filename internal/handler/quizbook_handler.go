package handler

import (
	"net/url"

	"quizbook/internal/domain"
	"quizbook/internal/dto"
	"quizbook/internal/middleware"
	"quizbook/internal/service"
	"quizbook/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// QuizBookHandler handles quiz book HTTP requests
type QuizBookHandler struct {
	service   service.QuizBookService
	validator *validation.Validator
}

// NewQuizBookHandler creates a new QuizBookHandler instance
func NewQuizBookHandler(service service.QuizBookService) *QuizBookHandler {
	return &QuizBookHandler{
		service:   service,
		validator: validation.NewValidator(),
	}
}

// RegisterRoutes mounts every quiz book route on router. The reset route
// exists only when allowReset is set.
func (h *QuizBookHandler) RegisterRoutes(router fiber.Router, allowReset bool) {
	vm := middleware.NewValidationMiddleware()
	bookID := vm.ValidateIDParams("bookId")
	chapterIDs := vm.ValidateIDParams("bookId", "chapterId")
	sectionIDs := vm.ValidateIDParams("bookId", "chapterId", "sectionId")
	scopeID := vm.ValidateIDParams("scopeId")
	number := vm.ValidateQuestionNumber()

	router.Get("/books", h.ListBooks)
	router.Post("/books", h.CreateBook)
	router.Get("/books/:bookId", bookID, h.GetBook)
	router.Patch("/books/:bookId", bookID, h.UpdateBook)
	router.Delete("/books/:bookId", bookID, h.DeleteBook)
	router.Put("/books/:bookId/section-mode", bookID, h.SetSectionMode)
	router.Post("/books/:bookId/rounds", bookID, h.CompleteRound)

	router.Post("/books/:bookId/chapters", bookID, h.AddChapter)
	router.Patch("/books/:bookId/chapters/:chapterId", chapterIDs, h.RenameChapter)
	router.Delete("/books/:bookId/chapters/:chapterId", chapterIDs, h.DeleteChapter)
	router.Post("/books/:bookId/chapters/:chapterId/sections", chapterIDs, h.AddSection)
	router.Patch("/books/:bookId/chapters/:chapterId/sections/:sectionId", sectionIDs, h.RenameSection)
	router.Delete("/books/:bookId/chapters/:chapterId/sections/:sectionId", sectionIDs, h.DeleteSection)

	router.Get("/scopes/:scopeId", scopeID, h.ResolveScope)
	router.Post("/scopes/:scopeId/questions", scopeID, h.AddQuestion)
	router.Put("/scopes/:scopeId/question-count", scopeID, h.SetQuestionCount)
	router.Get("/scopes/:scopeId/questions/:number", scopeID, number, h.GetQuestionHistory)
	router.Delete("/scopes/:scopeId/questions/:number", scopeID, number, h.DeleteQuestion)
	router.Post("/scopes/:scopeId/questions/:number/attempts", scopeID, number, h.RecordAttempt)
	router.Delete("/scopes/:scopeId/questions/:number/attempts/last", scopeID, number, h.DeleteLastAttempt)
	router.Post("/scopes/:scopeId/questions/:number/toggle", scopeID, number, h.ToggleLastResult)
	router.Post("/scopes/:scopeId/questions/:number/lock", scopeID, number, h.ToggleLock)
	router.Post("/scopes/:scopeId/questions/:number/advance", scopeID, number, h.Advance)
	router.Put("/scopes/:scopeId/questions/:number/memo", scopeID, number, h.SetMemo)

	router.Get("/categories", h.CategoryRollups)
	router.Get("/categories/:category", h.CategoryRollup)

	if allowReset {
		router.Delete("/reset", h.Reset)
	}
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return domain.NewValidationError("request body is not valid JSON").WithContext("cause", err.Error())
	}
	return nil
}

// ListBooks godoc
// @Summary List quiz books
// @Description Returns every quiz book with its stored rate and round
// @Tags books
// @Produce json
// @Success 200 {array} dto.QuizBookSummary
// @Failure 503 {object} middleware.ErrorResponse
// @Router /books [get]
func (h *QuizBookHandler) ListBooks(c *fiber.Ctx) error {
	books, err := h.service.ListBooks(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(books)
}

// CreateBook godoc
// @Summary Create a quiz book
// @Description Creates an empty book. The title may be left empty until edited.
// @Tags books
// @Accept json
// @Produce json
// @Param request body dto.CreateBookRequest true "Book"
// @Success 201 {object} dto.QuizBookResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Router /books [post]
func (h *QuizBookHandler) CreateBook(c *fiber.Ctx) error {
	var req dto.CreateBookRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if errs := h.validator.ValidateCreateBook(req.Title, req.Category); len(errs) > 0 {
		return errs
	}
	book, err := h.service.CreateBook(c.UserContext(), req.Title, req.Category)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(book)
}

// GetBook godoc
// @Summary Get a quiz book
// @Tags books
// @Produce json
// @Param bookId path string true "Book ID"
// @Success 200 {object} dto.QuizBookResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /books/{bookId} [get]
func (h *QuizBookHandler) GetBook(c *fiber.Ctx) error {
	book, err := h.service.GetBook(c.UserContext(), c.Params("bookId"))
	if err != nil {
		return err
	}
	return c.JSON(book)
}

// UpdateBook godoc
// @Summary Update a quiz book
// @Description Changes the title and/or category. Omitted fields are left unchanged.
// @Tags books
// @Accept json
// @Produce json
// @Param bookId path string true "Book ID"
// @Param request body dto.UpdateBookRequest true "Fields to change"
// @Success 200 {object} dto.QuizBookResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /books/{bookId} [patch]
func (h *QuizBookHandler) UpdateBook(c *fiber.Ctx) error {
	var req dto.UpdateBookRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if errs := h.validator.ValidateUpdateBook(req.Title, req.Category); len(errs) > 0 {
		return errs
	}
	book, err := h.service.UpdateBook(c.UserContext(), c.Params("bookId"), &req)
	if err != nil {
		return err
	}
	return c.JSON(book)
}

// DeleteBook godoc
// @Summary Delete a quiz book
// @Description Deletes the book with all chapters and answers. Deleting a missing book is a no-op.
// @Tags books
// @Produce json
// @Param bookId path string true "Book ID"
// @Success 200 {object} dto.DeleteResponse
// @Router /books/{bookId} [delete]
func (h *QuizBookHandler) DeleteBook(c *fiber.Ctx) error {
	removed, err := h.service.DeleteBook(c.UserContext(), c.Params("bookId"))
	if err != nil {
		return err
	}
	return c.JSON(dto.DeleteResponse{Deleted: removed})
}

// SetSectionMode godoc
// @Summary Decide the section mode
// @Description Chooses flat or sectioned chapters. Fails with 409 when chapters hold data in the other shape.
// @Tags books
// @Accept json
// @Produce json
// @Param bookId path string true "Book ID"
// @Param request body dto.SetSectionModeRequest true "Mode"
// @Success 200 {object} dto.QuizBookResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /books/{bookId}/section-mode [put]
func (h *QuizBookHandler) SetSectionMode(c *fiber.Ctx) error {
	var req dto.SetSectionModeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	mode, errs := h.validator.ValidateSectionMode(req.Mode)
	if len(errs) > 0 {
		return errs
	}
	book, err := h.service.SetSectionMode(c.UserContext(), c.Params("bookId"), mode)
	if err != nil {
		return err
	}
	return c.JSON(book)
}

// CompleteRound godoc
// @Summary Complete a study round
// @Description Advances the stored round counter of the book
// @Tags books
// @Produce json
// @Param bookId path string true "Book ID"
// @Success 200 {object} dto.RoundResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /books/{bookId}/rounds [post]
func (h *QuizBookHandler) CompleteRound(c *fiber.Ctx) error {
	round, err := h.service.CompleteRound(c.UserContext(), c.Params("bookId"))
	if err != nil {
		return err
	}
	return c.JSON(dto.RoundResponse{CurrentRound: round})
}

// AddChapter godoc
// @Summary Add a chapter
// @Tags chapters
// @Accept json
// @Produce json
// @Param bookId path string true "Book ID"
// @Param request body dto.TitleRequest false "Title, a placeholder is used when empty"
// @Success 201 {object} dto.ChapterResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /books/{bookId}/chapters [post]
func (h *QuizBookHandler) AddChapter(c *fiber.Ctx) error {
	var req dto.TitleRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}
	if errs := h.validator.ValidateOptionalTitle(req.Title); len(errs) > 0 {
		return errs
	}
	chapter, err := h.service.AddChapter(c.UserContext(), c.Params("bookId"), req.Title)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(chapter)
}

// RenameChapter godoc
// @Summary Rename a chapter
// @Tags chapters
// @Accept json
// @Produce json
// @Param bookId path string true "Book ID"
// @Param chapterId path string true "Chapter ID"
// @Param request body dto.TitleRequest true "Title"
// @Success 200 {object} dto.ChapterResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /books/{bookId}/chapters/{chapterId} [patch]
func (h *QuizBookHandler) RenameChapter(c *fiber.Ctx) error {
	var req dto.TitleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if errs := h.validator.ValidateTitle(req.Title); len(errs) > 0 {
		return errs
	}
	chapter, err := h.service.RenameChapter(c.UserContext(), c.Params("bookId"), c.Params("chapterId"), req.Title)
	if err != nil {
		return err
	}
	return c.JSON(chapter)
}

// DeleteChapter godoc
// @Summary Delete a chapter
// @Description Deletes the chapter with its sections and answers and renumbers the rest
// @Tags chapters
// @Produce json
// @Param bookId path string true "Book ID"
// @Param chapterId path string true "Chapter ID"
// @Success 200 {object} dto.DeleteResponse
// @Router /books/{bookId}/chapters/{chapterId} [delete]
func (h *QuizBookHandler) DeleteChapter(c *fiber.Ctx) error {
	removed, err := h.service.DeleteChapter(c.UserContext(), c.Params("bookId"), c.Params("chapterId"))
	if err != nil {
		return err
	}
	return c.JSON(dto.DeleteResponse{Deleted: removed})
}

// AddSection godoc
// @Summary Add a section
// @Tags sections
// @Accept json
// @Produce json
// @Param bookId path string true "Book ID"
// @Param chapterId path string true "Chapter ID"
// @Param request body dto.AddSectionRequest true "Section"
// @Success 201 {object} dto.SectionResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /books/{bookId}/chapters/{chapterId}/sections [post]
func (h *QuizBookHandler) AddSection(c *fiber.Ctx) error {
	var req dto.AddSectionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if errs := h.validator.ValidateAddSection(req.Title, req.QuestionCount); len(errs) > 0 {
		return errs
	}
	section, err := h.service.AddSection(c.UserContext(), c.Params("bookId"), c.Params("chapterId"), req.Title, req.QuestionCount)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(section)
}

// RenameSection godoc
// @Summary Rename a section
// @Tags sections
// @Accept json
// @Produce json
// @Param bookId path string true "Book ID"
// @Param chapterId path string true "Chapter ID"
// @Param sectionId path string true "Section ID"
// @Param request body dto.TitleRequest true "Title"
// @Success 200 {object} dto.SectionResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /books/{bookId}/chapters/{chapterId}/sections/{sectionId} [patch]
func (h *QuizBookHandler) RenameSection(c *fiber.Ctx) error {
	var req dto.TitleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if errs := h.validator.ValidateTitle(req.Title); len(errs) > 0 {
		return errs
	}
	section, err := h.service.RenameSection(c.UserContext(), c.Params("bookId"), c.Params("chapterId"), c.Params("sectionId"), req.Title)
	if err != nil {
		return err
	}
	return c.JSON(section)
}

// DeleteSection godoc
// @Summary Delete a section
// @Tags sections
// @Produce json
// @Param bookId path string true "Book ID"
// @Param chapterId path string true "Chapter ID"
// @Param sectionId path string true "Section ID"
// @Success 200 {object} dto.DeleteResponse
// @Router /books/{bookId}/chapters/{chapterId}/sections/{sectionId} [delete]
func (h *QuizBookHandler) DeleteSection(c *fiber.Ctx) error {
	removed, err := h.service.DeleteSection(c.UserContext(), c.Params("bookId"), c.Params("chapterId"), c.Params("sectionId"))
	if err != nil {
		return err
	}
	return c.JSON(dto.DeleteResponse{Deleted: removed})
}

// ResolveScope godoc
// @Summary Get a question scope
// @Description Resolves a flat chapter id or a section id to its questions and their histories
// @Tags questions
// @Produce json
// @Param scopeId path string true "Chapter or section ID"
// @Success 200 {object} dto.ScopeResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /scopes/{scopeId} [get]
func (h *QuizBookHandler) ResolveScope(c *fiber.Ctx) error {
	scope, err := h.service.ResolveScope(c.UserContext(), c.Params("scopeId"))
	if err != nil {
		return err
	}
	return c.JSON(scope)
}

// AddQuestion godoc
// @Summary Add a question
// @Tags questions
// @Produce json
// @Param scopeId path string true "Chapter or section ID"
// @Success 201 {object} dto.CountResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /scopes/{scopeId}/questions [post]
func (h *QuizBookHandler) AddQuestion(c *fiber.Ctx) error {
	count, err := h.service.AddQuestion(c.UserContext(), c.Params("scopeId"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.CountResponse{Count: count})
}

// SetQuestionCount godoc
// @Summary Resize a question scope
// @Description Fails with 409 when questions above the new count hold answers
// @Tags questions
// @Accept json
// @Produce json
// @Param scopeId path string true "Chapter or section ID"
// @Param request body dto.SetQuestionCountRequest true "Count"
// @Success 200 {object} dto.CountResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /scopes/{scopeId}/question-count [put]
func (h *QuizBookHandler) SetQuestionCount(c *fiber.Ctx) error {
	var req dto.SetQuestionCountRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if errs := h.validator.ValidateQuestionCount("count", req.Count); len(errs) > 0 {
		return errs
	}
	count, err := h.service.SetQuestionCount(c.UserContext(), c.Params("scopeId"), req.Count)
	if err != nil {
		return err
	}
	return c.JSON(dto.CountResponse{Count: count})
}

// GetQuestionHistory godoc
// @Summary Get a question's attempt history
// @Tags questions
// @Produce json
// @Param scopeId path string true "Chapter or section ID"
// @Param number path int true "Question number"
// @Success 200 {object} dto.QuestionResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /scopes/{scopeId}/questions/{number} [get]
func (h *QuizBookHandler) GetQuestionHistory(c *fiber.Ctx) error {
	q, err := h.service.GetQuestionHistory(c.UserContext(), c.Params("scopeId"), middleware.QuestionNumber(c))
	if err != nil {
		return err
	}
	return c.JSON(q)
}

// DeleteQuestion godoc
// @Summary Delete a question
// @Description Discards the question's history and moves later questions down by one
// @Tags questions
// @Produce json
// @Param scopeId path string true "Chapter or section ID"
// @Param number path int true "Question number"
// @Success 200 {object} dto.DeleteResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Router /scopes/{scopeId}/questions/{number} [delete]
func (h *QuizBookHandler) DeleteQuestion(c *fiber.Ctx) error {
	removed, err := h.service.DeleteQuestion(c.UserContext(), c.Params("scopeId"), middleware.QuestionNumber(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.DeleteResponse{Deleted: removed})
}

// RecordAttempt godoc
// @Summary Record a result
// @Description Starts a new round after a locked attempt, otherwise overwrites the open one
// @Tags attempts
// @Accept json
// @Produce json
// @Param scopeId path string true "Chapter or section ID"
// @Param number path int true "Question number"
// @Param request body dto.RecordAttemptRequest true "Result"
// @Success 200 {object} dto.QuestionResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /scopes/{scopeId}/questions/{number}/attempts [post]
func (h *QuizBookHandler) RecordAttempt(c *fiber.Ctx) error {
	var req dto.RecordAttemptRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	result, errs := h.validator.ValidateResult(req.Result)
	if len(errs) > 0 {
		return errs
	}
	q, err := h.service.RecordAttempt(c.UserContext(), c.Params("scopeId"), middleware.QuestionNumber(c), result)
	if err != nil {
		return err
	}
	return c.JSON(q)
}

// DeleteLastAttempt godoc
// @Summary Undo the last attempt
// @Description Removes the unlocked last attempt
// @Tags attempts
// @Produce json
// @Param scopeId path string true "Chapter or section ID"
// @Param number path int true "Question number"
// @Success 200 {object} dto.QuestionResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /scopes/{scopeId}/questions/{number}/attempts/last [delete]
func (h *QuizBookHandler) DeleteLastAttempt(c *fiber.Ctx) error {
	q, err := h.service.DeleteLastAttempt(c.UserContext(), c.Params("scopeId"), middleware.QuestionNumber(c))
	if err != nil {
		return err
	}
	return c.JSON(q)
}

// ToggleLastResult godoc
// @Summary Toggle the last result
// @Description pass becomes fail, fail becomes unanswered
// @Tags attempts
// @Produce json
// @Param scopeId path string true "Chapter or section ID"
// @Param number path int true "Question number"
// @Success 200 {object} dto.QuestionResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /scopes/{scopeId}/questions/{number}/toggle [post]
func (h *QuizBookHandler) ToggleLastResult(c *fiber.Ctx) error {
	q, err := h.service.ToggleLastResult(c.UserContext(), c.Params("scopeId"), middleware.QuestionNumber(c))
	if err != nil {
		return err
	}
	return c.JSON(q)
}

// ToggleLock godoc
// @Summary Lock or unlock the last attempt
// @Tags attempts
// @Produce json
// @Param scopeId path string true "Chapter or section ID"
// @Param number path int true "Question number"
// @Success 200 {object} dto.QuestionResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /scopes/{scopeId}/questions/{number}/lock [post]
func (h *QuizBookHandler) ToggleLock(c *fiber.Ctx) error {
	q, err := h.service.ToggleLock(c.UserContext(), c.Params("scopeId"), middleware.QuestionNumber(c))
	if err != nil {
		return err
	}
	return c.JSON(q)
}

// Advance godoc
// @Summary Advance a question
// @Description Records pass on an unanswered or locked question, otherwise toggles the open result
// @Tags attempts
// @Produce json
// @Param scopeId path string true "Chapter or section ID"
// @Param number path int true "Question number"
// @Success 200 {object} dto.QuestionResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /scopes/{scopeId}/questions/{number}/advance [post]
func (h *QuizBookHandler) Advance(c *fiber.Ctx) error {
	q, err := h.service.Advance(c.UserContext(), c.Params("scopeId"), middleware.QuestionNumber(c))
	if err != nil {
		return err
	}
	return c.JSON(q)
}

// SetMemo godoc
// @Summary Set a question memo
// @Tags questions
// @Accept json
// @Produce json
// @Param scopeId path string true "Chapter or section ID"
// @Param number path int true "Question number"
// @Param request body dto.SetMemoRequest true "Memo"
// @Success 200 {object} dto.QuestionResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Router /scopes/{scopeId}/questions/{number}/memo [put]
func (h *QuizBookHandler) SetMemo(c *fiber.Ctx) error {
	var req dto.SetMemoRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if errs := h.validator.ValidateMemo(req.Memo); len(errs) > 0 {
		return errs
	}
	q, err := h.service.SetMemo(c.UserContext(), c.Params("scopeId"), middleware.QuestionNumber(c), req.Memo)
	if err != nil {
		return err
	}
	return c.JSON(q)
}

// CategoryRollups godoc
// @Summary Category rollups
// @Description Categories sorted by descending average rate, with strong and weak books
// @Tags categories
// @Produce json
// @Success 200 {array} dto.CategoryRollupResponse
// @Router /categories [get]
func (h *QuizBookHandler) CategoryRollups(c *fiber.Ctx) error {
	rollups, err := h.service.CategoryRollups(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(rollups)
}

// CategoryRollup godoc
// @Summary One category rollup
// @Tags categories
// @Produce json
// @Param category path string true "Category name"
// @Success 200 {object} dto.CategoryRollupResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /categories/{category} [get]
func (h *QuizBookHandler) CategoryRollup(c *fiber.Ctx) error {
	category, err := url.PathUnescape(c.Params("category"))
	if err != nil {
		return domain.ValidationErrors{domain.NewInvalidFormatError("category", c.Params("category"))}
	}
	rollup, err := h.service.CategoryRollup(c.UserContext(), category)
	if err != nil {
		return err
	}
	return c.JSON(rollup)
}

// Reset godoc
// @Summary Remove every quiz book
// @Description Registered only when api.allow_reset is enabled
// @Tags admin
// @Success 204
// @Failure 503 {object} middleware.ErrorResponse
// @Router /reset [delete]
func (h *QuizBookHandler) Reset(c *fiber.Ctx) error {
	if err := h.service.Clear(c.UserContext()); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
