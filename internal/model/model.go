package model

import "time"

// Статусы задач
const (
	StatusBacklog  = "backlog"
	StatusThisWeek = "this_week"
	StatusToday    = "today"
	StatusDone     = "done"
)

// Виды вложений
const (
	AttachmentImage = "image"
	AttachmentFile  = "file"
)

// Форматы содержимого заметки
const (
	FormatPlain    = "plain"
	FormatMarkdown = "markdown"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusBacklog, StatusThisWeek, StatusToday, StatusDone:
		return true
	}
	return false
}

type Task struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Status       string     `json:"status"`
	Priority     int        `json:"priority"`
	CategoryID   *int64     `json:"categoryId,omitempty"`
	LinkedNoteID *int64     `json:"linkedNoteId,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

type Note struct {
	ID            int64        `json:"id"`
	Title         string       `json:"title"`
	Content       string       `json:"content"`
	Format        string       `json:"format"`
	Tags          []string     `json:"tags,omitempty"`
	LinkedTaskIDs []int64      `json:"linkedTaskIds,omitempty"`
	Attachments   []Attachment `json:"attachments,omitempty"`
	InlineImages  []string     `json:"inlineImages,omitempty"`
	ColorTag      string       `json:"colorTag,omitempty"`
	Pinned        bool         `json:"pinned,omitempty"`
	Archived      bool         `json:"archived,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// Attachment — метаданные вложения. Сами байты лежат в blobstore,
// URL указывает на файл с именем <sha256><ext>.
type Attachment struct {
	ID        string    `json:"id"`
	NoteID    int64     `json:"noteId"`
	Kind      string    `json:"kind"`
	URL       string    `json:"url"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	MediaType string    `json:"mediaType"`
	CreatedAt time.Time `json:"createdAt"`
}

// Snapshot — родная форма экспорта хранилища. Формат JSON должен
// сохраняться байт-в-байт для совместимости со старыми бэкапами.
type Snapshot struct {
	Tasks []Task `json:"tasks"`
	Notes []Note `json:"notes"`
}

type Conflict struct {
	Kind string `json:"kind"`
	ID   int64  `json:"id"`
}

type PreviewReport struct {
	TaskCount     int        `json:"taskCount"`
	NoteCount     int        `json:"noteCount"`
	CategoryCount int        `json:"categoryCount"`
	Conflicts     []Conflict `json:"conflicts,omitempty"`
	Warnings      []string   `json:"warnings,omitempty"`
}

type MergeResult struct {
	ImportedTasks int      `json:"importedTasks"`
	ImportedNotes int      `json:"importedNotes"`
	Warnings      []string `json:"warnings,omitempty"`
	Errors        []string `json:"errors,omitempty"`
	// Свежедобавленные записи — для вторичной репликации во внешнее зеркало
	Tasks []Task `json:"tasks,omitempty"`
	Notes []Note `json:"notes,omitempty"`
}

// ApplyOptions — косметические значения по умолчанию для новых записей.
// На корректность слияния не влияют.
type ApplyOptions struct {
	DefaultColorTag string `json:"defaultColorTag,omitempty"`
}
