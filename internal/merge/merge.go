package merge

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/noteport/internal/model"
)

// Engine вливает канонические записи в текущее состояние хранилища.
// Слияние только добавляет: существующие записи не перезаписываются и не
// удаляются, конфликт идентификаторов решается клонированием под новым id.
type Engine struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Engine {
	return &Engine{logger: logger}
}

// Merge возвращает новое состояние хранилища и отчет. current не
// изменяется; вызывающий обязан сериализовать слияния против одного
// хранилища — движок рассчитывает на монопольный доступ к счетчикам id.
func (e *Engine) Merge(incoming, current model.Snapshot) (model.Snapshot, model.MergeResult) {
	merged := model.Snapshot{
		Tasks: append([]model.Task(nil), current.Tasks...),
		Notes: append([]model.Note(nil), current.Notes...),
	}

	var res model.MergeResult
	now := time.Now()

	taskIDs := make(map[int64]bool, len(current.Tasks))
	nextTaskID := int64(1)
	for _, t := range current.Tasks {
		taskIDs[t.ID] = true
		if t.ID >= nextTaskID {
			nextTaskID = t.ID + 1
		}
	}
	noteIDs := make(map[int64]bool, len(current.Notes))
	nextNoteID := int64(1)
	for _, n := range current.Notes {
		noteIDs[n.ID] = true
		if n.ID >= nextNoteID {
			nextNoteID = n.ID + 1
		}
	}

	// Проход 1: задачи. Коллизия — это не ошибка, а ожидаемый сценарий
	// (повторный импорт того же бэкапа): запись клонируется под свежим id
	// со свежими временными метками.
	taskRemap := make(map[int64]int64)
	for _, t := range incoming.Tasks {
		if taskIDs[t.ID] {
			newID := nextTaskID
			nextTaskID++
			taskRemap[t.ID] = newID
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("task id %d already exists, remapped to %d", t.ID, newID))
			t.ID = newID
			t.CreatedAt, t.UpdatedAt = now, now
		} else if t.ID >= nextTaskID {
			// Счетчик уходит за вставленный id, чтобы он не выдался повторно.
			nextTaskID = t.ID + 1
		}
		taskIDs[t.ID] = true
		merged.Tasks = append(merged.Tasks, t)
		res.ImportedTasks++
	}

	// Проход 2: заметки, после задач — спискам linkedTaskIds нужны
	// окончательные идентификаторы задач.
	noteRemap := make(map[int64]int64)
	for _, n := range incoming.Notes {
		if noteIDs[n.ID] {
			newID := nextNoteID
			nextNoteID++
			noteRemap[n.ID] = newID
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("note id %d already exists, remapped to %d", n.ID, newID))
			n.ID = newID
			n.CreatedAt, n.UpdatedAt = now, now
		} else if n.ID >= nextNoteID {
			nextNoteID = n.ID + 1
		}
		noteIDs[n.ID] = true

		// Вложения переподчиняются окончательному id заметки.
		if len(n.Attachments) > 0 {
			atts := append([]model.Attachment(nil), n.Attachments...)
			for i := range atts {
				atts[i].NoteID = n.ID
			}
			n.Attachments = atts
		}

		merged.Notes = append(merged.Notes, n)
		res.ImportedNotes++
	}

	// Проход 3: починка перекрестных ссылок у добавленных записей.
	// Битые ссылки вычищаются, висячих не остается.
	for i := len(current.Tasks); i < len(merged.Tasks); i++ {
		t := &merged.Tasks[i]
		if t.LinkedNoteID == nil {
			continue
		}
		id := *t.LinkedNoteID
		if mapped, ok := noteRemap[id]; ok {
			id = mapped
		}
		if noteIDs[id] {
			t.LinkedNoteID = &id
		} else {
			t.LinkedNoteID = nil
		}
	}
	for i := len(current.Notes); i < len(merged.Notes); i++ {
		n := &merged.Notes[i]
		if len(n.LinkedTaskIDs) == 0 {
			continue
		}
		linked := make([]int64, 0, len(n.LinkedTaskIDs))
		for _, id := range n.LinkedTaskIDs {
			if mapped, ok := taskRemap[id]; ok {
				id = mapped
			}
			if taskIDs[id] {
				linked = append(linked, id)
			}
		}
		if len(linked) == 0 {
			linked = nil
		}
		n.LinkedTaskIDs = linked
	}

	res.Tasks = append([]model.Task(nil), merged.Tasks[len(current.Tasks):]...)
	res.Notes = append([]model.Note(nil), merged.Notes[len(current.Notes):]...)

	e.logger.Info("merge completed",
		zap.Int("imported_tasks", res.ImportedTasks),
		zap.Int("imported_notes", res.ImportedNotes),
		zap.Int("collisions", len(taskRemap)+len(noteRemap)),
	)
	return merged, res
}

// Preview — сухой прогон: только подсчет и поиск коллизий, никаких
// мутаций и выделения идентификаторов. Можно звать сколько угодно раз.
func (e *Engine) Preview(incoming, current model.Snapshot) model.PreviewReport {
	report := model.PreviewReport{
		TaskCount: len(incoming.Tasks),
		NoteCount: len(incoming.Notes),
	}

	taskIDs := make(map[int64]bool, len(current.Tasks))
	for _, t := range current.Tasks {
		taskIDs[t.ID] = true
	}
	noteIDs := make(map[int64]bool, len(current.Notes))
	for _, n := range current.Notes {
		noteIDs[n.ID] = true
	}

	categories := make(map[int64]bool)
	for _, t := range incoming.Tasks {
		if t.CategoryID != nil {
			categories[*t.CategoryID] = true
		}
		if taskIDs[t.ID] {
			report.Conflicts = append(report.Conflicts, model.Conflict{Kind: "task", ID: t.ID})
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("task id %d already exists, will be remapped", t.ID))
		}
	}
	for _, n := range incoming.Notes {
		if noteIDs[n.ID] {
			report.Conflicts = append(report.Conflicts, model.Conflict{Kind: "note", ID: n.ID})
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("note id %d already exists, will be remapped", n.ID))
		}
	}
	report.CategoryCount = len(categories)
	return report
}
