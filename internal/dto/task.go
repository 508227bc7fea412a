package dto

import "time"

type CreateTaskRequest struct {
	Title string `json:"title" binding:"required,min=1,max=120"`
}

// UpdateTaskRequest toggles the completion flag. The title and owner of a
// task are immutable after creation.
type UpdateTaskRequest struct {
	IsCompleted *bool `json:"isCompleted" binding:"required"`
}

type TaskResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	IsCompleted bool      `json:"isCompleted"`
	UserID      int64     `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Pagination describes the window a list response covers. Total is the
// number of rows matching the filter regardless of page/limit.
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int64 `json:"totalPages"`
}

type ListTasksResponse struct {
	Success    bool           `json:"success"`
	Data       []TaskResponse `json:"data"`
	Pagination Pagination     `json:"pagination"`
}

// DeleteTaskResponse acknowledges a successful delete.
type DeleteTaskResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// UploadResponse carries the public URL of a stored file.
type UploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	URL     string `json:"url"`
}
