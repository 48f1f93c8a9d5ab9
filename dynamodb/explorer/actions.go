package explorer

import (
	"slices"

	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/deletion"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/edit"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/record"
)

// UpdateRequest is an edited item to dispatch to the update collaborator.
type UpdateRequest struct {
	Tag         RequestTag    `json:"-"`
	Environment string        `json:"environment"`
	Table       string        `json:"table"`
	Item        record.Record `json:"item"`
}

// DeleteRequest is a confirmed deletion to dispatch to the delete
// collaborator.
type DeleteRequest struct {
	Tag RequestTag `json:"-"`
	deletion.Request
}

// OpenEdit opens the editor on the result at i.
func (s State) OpenEdit(i int) State {
	h, err := At(s, i)
	if err != nil {
		return s.Notify(ToastError, err.Error())
	}
	sess, err := edit.Open(h.Index, s.Results[h.Index])
	if err != nil {
		return s.Notify(ToastError, err.Error())
	}
	s.Edit = &sess
	return s
}

// EditText replaces the editor text.
func (s State) EditText(text string) State {
	if s.Edit == nil {
		return s
	}
	sess := s.Edit.SetText(text)
	s.Edit = &sess
	return s
}

// Reformat pretty-prints the editor text. A parse failure is reported inline
// and the text is kept.
func (s State) Reformat() State {
	if s.Edit == nil {
		return s
	}
	sess := s.Edit.Reformat()
	s.Edit = &sess
	return s
}

// CancelEdit closes the editor.
func (s State) CancelEdit() State {
	s.Edit = nil
	return s
}

// SaveEdit parses the editor text. On a parse failure the editor stays open
// with the error shown and ok is false. Otherwise the editor closes, the
// state turns busy and the update to dispatch is returned.
func (s State) SaveEdit() (next State, req UpdateRequest, ok bool) {
	if s.Edit == nil || s.Busy {
		return s, UpdateRequest{}, false
	}
	sess, item := s.Edit.Save()
	if item == nil {
		s.Edit = &sess
		return s, UpdateRequest{}, false
	}
	h, err := At(s, sess.Index)
	if err != nil {
		s.Edit = nil
		return s.Notify(ToastError, err.Error()), UpdateRequest{}, false
	}

	s, tag := s.nextTag()
	s.Edit = nil
	s.pendingUpdate = &pendingUpdate{tag: tag, handle: h, item: item}
	s = s.syncBusy()
	return s, UpdateRequest{
		Tag:         tag,
		Environment: s.Environment,
		Table:       s.Table,
		Item:        item,
	}, true
}

// ApplyUpdateResult completes the update tagged tag. Only a successful
// update replaces the result, at the index it was edited from.
func (s State) ApplyUpdateResult(tag RequestTag, err error) State {
	p := s.pendingUpdate
	if p == nil || p.tag != tag {
		return s
	}
	s.pendingUpdate = nil
	s = s.syncBusy()
	if err != nil {
		return s.Notify(ToastError, "Update failed: "+err.Error())
	}
	if s.Valid(p.handle) {
		results := slices.Clone(s.Results)
		results[p.handle.Index] = p.item
		s.Results = results
	}
	return s.Notify(ToastSuccess, "Item updated successfully")
}

// OpenDelete opens the delete confirmation for the result at i. Results
// without a usable primary key are refused with a toast.
func (s State) OpenDelete(i int) State {
	h, err := At(s, i)
	if err != nil {
		return s.Notify(ToastError, err.Error())
	}
	t, ok := s.CurrentTable()
	if !ok {
		return s.Notify(ToastError, "Cannot delete: no table selected")
	}
	c, err := deletion.Open(h.Index, s.Results[h.Index], s.Environment, s.Table, t.PrimaryKey, s.Production())
	if err != nil {
		return s.Notify(ToastError, "Cannot delete: "+err.Error())
	}
	s.Delete = &c
	return s
}

// SetDeletePhrase records the typed confirmation phrase.
func (s State) SetDeletePhrase(phrase string) State {
	if s.Delete == nil {
		return s
	}
	c := *s.Delete
	c.Phrase = phrase
	s.Delete = &c
	return s
}

// SetDeleteAcknowledged records the risk acknowledgement.
func (s State) SetDeleteAcknowledged(ack bool) State {
	if s.Delete == nil {
		return s
	}
	c := *s.Delete
	c.Acknowledged = ack
	s.Delete = &c
	return s
}

// CancelDelete closes the delete confirmation.
func (s State) CancelDelete() State {
	s.Delete = nil
	return s
}

// ConfirmDelete returns the deletion to dispatch once the phrase and the
// acknowledgement are given. The dialog closes and the state turns busy.
func (s State) ConfirmDelete() (next State, req DeleteRequest, ok bool) {
	if s.Delete == nil || s.Busy {
		return s, DeleteRequest{}, false
	}
	r, err := s.Delete.Request()
	if err != nil {
		return s, DeleteRequest{}, false
	}
	h, err := At(s, s.Delete.Index)
	if err != nil {
		s.Delete = nil
		return s.Notify(ToastError, err.Error()), DeleteRequest{}, false
	}

	s, tag := s.nextTag()
	s.Delete = nil
	s.pendingDelete = &pendingDelete{tag: tag, handle: h}
	s = s.syncBusy()
	return s, DeleteRequest{Tag: tag, Request: r}, true
}

// ApplyDeleteResult completes the deletion tagged tag. On success the result
// is removed and later results shift down by one.
func (s State) ApplyDeleteResult(tag RequestTag, err error) State {
	p := s.pendingDelete
	if p == nil || p.tag != tag {
		return s
	}
	s.pendingDelete = nil
	s = s.syncBusy()
	if err != nil {
		return s.Notify(ToastError, "Delete failed: "+err.Error())
	}
	if s.Valid(p.handle) {
		s.Results = slices.Delete(slices.Clone(s.Results), p.handle.Index, p.handle.Index+1)
		s.Expanded = s.Expanded.Remove(p.handle.Index)
	}
	return s.Notify(ToastSuccess, "Item deleted successfully")
}
