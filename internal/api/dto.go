package api

import (
	"github.com/starford/vaultview/internal/models"
	"github.com/starford/vaultview/internal/render"
)

// FileNode is a tree entry (aliased from the models layer).
type FileNode = models.FileNode

// TreeResponse is returned by GET /api/files?warnings=1.
type TreeResponse struct {
	Tree    []FileNode            `json:"tree" validate:"required"`
	Skipped []models.SkippedEntry `json:"skipped" validate:"required"`
}

// FileContentResponse carries the text of a Markdown file.
type FileContentResponse struct {
	Content string `json:"content" example:"# Hello\nWorld" validate:"required"`
}

// RenderResponse is a rendered note (aliased from the render layer).
type RenderResponse = render.Result
