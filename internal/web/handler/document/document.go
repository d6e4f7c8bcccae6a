// Package document provides the JSON endpoints for the document registry:
// listing, upload, download, metadata updates, soft delete and categories.
package document

import (
	"errors"
	"mime/multipart"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/docvault/docvault/internal/auth"
	"github.com/docvault/docvault/internal/config"
	"github.com/docvault/docvault/internal/db/controller/category"
	"github.com/docvault/docvault/internal/db/controller/document"
	"github.com/docvault/docvault/internal/db/models"
	"github.com/docvault/docvault/internal/storage"
	"github.com/docvault/docvault/internal/web/handler"
)

const (
	// Path is the base path for document routes.
	Path = handler.APIPath + "/documents"

	// dateLayout is the accepted format for documentDate fields.
	dateLayout = "2006-01-02"
)

// Service is the document handler service.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	store     *storage.Store
	validator *validator.Validate
}

// Handler is the document handler.
var Handler = Service{}

// Init initializes the document handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service, store *storage.Store) {
	if app == nil || cfg == nil || db == nil || store == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db
	s.store = store
	s.validator = validator.New()

	// The list endpoint carries no permission middleware: it returns only the
	// documents the visibility query yields for the caller, which may be none.
	app.Get(Path, s.List)

	app.Post(Path,
		auth.RequirePermission(authService, auth.ResourceDocuments, auth.ActionUpload),
		s.Upload,
	)

	// must be registered before the ":id" routes
	app.Get(Path+"/categories", s.Categories)

	app.Get(Path+"/:id",
		auth.RequireDocumentPermission(authService, auth.ActionView),
		s.Get,
	)
	app.Get(Path+"/:id/download",
		auth.RequireDocumentPermission(authService, auth.ActionView),
		s.Download,
	)
	app.Put(Path+"/:id",
		auth.RequireDocumentPermission(authService, auth.ActionEdit),
		s.Update,
	)
	app.Delete(Path+"/:id",
		auth.RequireDocumentPermission(authService, auth.ActionDelete),
		s.Delete,
	)
}

// View is the JSON projection of a document.
type View struct {
	ID           uint64  `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	FileName     string  `json:"fileName"`
	FileSize     int64   `json:"fileSize"`
	FileType     string  `json:"fileType,omitempty"`
	Category     string  `json:"category"`
	CategoryID   uint    `json:"categoryId"`
	UploadedBy   uint64  `json:"uploadedBy"`
	UploaderName string  `json:"uploaderName,omitempty"`
	Author       string  `json:"author,omitempty"`
	DocumentDate *string `json:"documentDate,omitempty"`
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    string  `json:"updatedAt"`
}

// NewView builds a View from a document with preloaded associations.
func NewView(doc *models.Document) View {
	v := View{
		ID:           doc.ID,
		Name:         doc.Name,
		Description:  doc.Description,
		FileName:     doc.FileName,
		FileSize:     doc.FileSize,
		FileType:     doc.FileType,
		Category:     doc.Category.Name,
		CategoryID:   doc.CategoryID,
		UploadedBy:   doc.UploadedBy,
		UploaderName: doc.Uploader.FullName(),
		Author:       doc.Author,
		CreatedAt:    doc.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    doc.UpdatedAt.Format(time.RFC3339),
	}

	if doc.DocumentDate != nil {
		d := doc.DocumentDate.Format(dateLayout)
		v.DocumentDate = &d
	}

	return v
}

// List returns the documents visible to the caller, newest first. An optional
// "category" query parameter filters by category name.
func (s *Service) List(c *fiber.Ctx) error {
	userID := auth.CurrentUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	docs, err := document.ListVisibleTo(s.db, userID, c.Query("category"))
	if err != nil {
		log.Error().Err(err).Uint64("user_id", userID).Msg("failed to list documents")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	views := make([]View, 0, len(docs))
	for i := range docs {
		views = append(views, NewView(&docs[i]))
	}

	return c.JSON(fiber.Map{"documents": views})
}

// Get returns a single document's metadata.
func (s *Service) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid document id"})
	}

	doc, err := document.GetByID(s.db, id)

	switch {
	case errors.Is(err, document.ErrDocumentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Document not found"})
	case err != nil:
		log.Error().Err(err).Uint64("document_id", id).Msg("failed to load document")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	return c.JSON(fiber.Map{"document": NewView(doc)})
}

// Download streams the stored file under its original name.
func (s *Service) Download(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid document id"})
	}

	doc, err := document.GetByID(s.db, id)

	switch {
	case errors.Is(err, document.ErrDocumentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Document not found"})
	case err != nil:
		log.Error().Err(err).Uint64("document_id", id).Msg("failed to load document")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	if !s.store.Exists(doc.FilePath) {
		log.Error().Uint64("document_id", id).Str("path", doc.FilePath).Msg("stored file is missing")

		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "File not found"})
	}

	return c.Download(doc.FilePath, doc.FileName)
}

// Upload accepts a multipart upload and registers the document. The file is
// written to the store first; if the database insert fails the stored file is
// removed again.
func (s *Service) Upload(c *fiber.Ctx) error {
	userID := auth.CurrentUserID(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing file"})
	}

	if fileHeader.Size > s.cfg.Storage.MaxUploadSize {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": "File exceeds the upload size limit"})
	}

	var in struct {
		Name         string `form:"name"         validate:"required,max=255"`
		Description  string `form:"description"  validate:"max=1000"`
		CategoryID   uint   `form:"categoryId"   validate:"required"`
		Author       string `form:"author"       validate:"max=255"`
		DocumentDate string `form:"documentDate"`
	}

	if err = c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid form data"})
	}

	if err = s.validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	docDate, err := parseDocumentDate(in.DocumentDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid documentDate, expected YYYY-MM-DD"})
	}

	if _, err = category.GetByID(s.db, in.CategoryID); err != nil {
		if errors.Is(err, category.ErrCategoryNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown category"})
		}

		log.Error().Err(err).Uint("category_id", in.CategoryID).Msg("failed to load category")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	storedPath, size, err := s.saveUpload(fileHeader)
	if err != nil {
		log.Error().Err(err).Str("file", fileHeader.Filename).Msg("failed to store uploaded file")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	doc, err := document.Create(s.db, document.CreateParams{
		Name:         in.Name,
		Description:  in.Description,
		FileName:     fileHeader.Filename,
		FilePath:     storedPath,
		FileSize:     size,
		FileType:     fileHeader.Header.Get("Content-Type"),
		CategoryID:   in.CategoryID,
		UploadedBy:   userID,
		Author:       in.Author,
		DocumentDate: docDate,
	})
	if err != nil {
		// compensate: the metadata insert failed, drop the stored file
		if removeErr := s.store.Remove(storedPath); removeErr != nil {
			log.Error().Err(removeErr).Str("path", storedPath).Msg("failed to remove orphaned file")
		}

		log.Error().Err(err).Str("name", in.Name).Msg("failed to create document")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	doc, err = document.GetByID(s.db, doc.ID)
	if err != nil {
		log.Error().Err(err).Uint64("document_id", doc.ID).Msg("failed to reload document")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	log.Info().Uint64("document_id", doc.ID).Uint64("user_id", userID).Msg("document uploaded")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"document": NewView(doc)})
}

// Update changes a document's metadata. Absent fields keep their value.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid document id"})
	}

	var in struct {
		Name         *string `json:"name"         validate:"omitempty,min=1,max=255"`
		Description  *string `json:"description"  validate:"omitempty,max=1000"`
		Author       *string `json:"author"       validate:"omitempty,max=255"`
		DocumentDate *string `json:"documentDate"`
		CategoryID   *uint   `json:"categoryId"`
	}

	if err = c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err = s.validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	params := document.UpdateParams{
		Name:        in.Name,
		Description: in.Description,
		Author:      in.Author,
	}

	if in.DocumentDate != nil {
		docDate, dateErr := parseDocumentDate(*in.DocumentDate)
		if dateErr != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid documentDate, expected YYYY-MM-DD"})
		}

		params.DocumentDate = docDate
	}

	if in.CategoryID != nil {
		if _, err = category.GetByID(s.db, *in.CategoryID); err != nil {
			if errors.Is(err, category.ErrCategoryNotFound) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown category"})
			}

			log.Error().Err(err).Uint("category_id", *in.CategoryID).Msg("failed to load category")

			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
		}

		params.CategoryID = in.CategoryID
	}

	doc, err := document.Update(s.db, id, params)

	switch {
	case errors.Is(err, document.ErrDocumentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Document not found"})
	case err != nil:
		log.Error().Err(err).Uint64("document_id", id).Msg("failed to update document")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	return c.JSON(fiber.Map{"document": NewView(doc)})
}

// Delete soft-deletes a document and removes the stored file. The metadata row
// is kept; the document is treated as not found from now on.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid document id"})
	}

	filePath, err := document.SoftDelete(s.db, id)

	switch {
	case errors.Is(err, document.ErrDocumentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Document not found"})
	case err != nil:
		log.Error().Err(err).Uint64("document_id", id).Msg("failed to delete document")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	// the row is already inactive; a failed file removal only leaks disk space
	if err = s.store.Remove(filePath); err != nil {
		log.Error().Err(err).Str("path", filePath).Msg("failed to remove stored file")
	}

	log.Info().Uint64("document_id", id).Uint64("user_id", auth.CurrentUserID(c)).Msg("document deleted")

	return c.JSON(fiber.Map{"message": "Document deleted"})
}

// CategoryView is the JSON projection of a document category.
type CategoryView struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color,omitempty"`
	Description string `json:"description,omitempty"`
}

// Categories lists all document categories.
func (s *Service) Categories(c *fiber.Ctx) error {
	categories, err := category.GetAll(s.db)
	if err != nil {
		log.Error().Err(err).Msg("failed to list categories")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	views := make([]CategoryView, 0, len(categories))
	for _, cat := range categories {
		views = append(views, CategoryView{
			ID:          cat.ID,
			Name:        cat.Name,
			Color:       cat.Color,
			Description: cat.Description,
		})
	}

	return c.JSON(fiber.Map{"categories": views})
}

// saveUpload streams the multipart file into the store.
func (s *Service) saveUpload(fileHeader *multipart.FileHeader) (string, int64, error) {
	src, err := fileHeader.Open()
	if err != nil {
		return "", 0, err //nolint:wrapcheck
	}
	defer src.Close()

	return s.store.Save(src, fileHeader.Filename)
}

func parseDocumentDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil //nolint:nilnil
	}

	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return &parsed, nil
}
