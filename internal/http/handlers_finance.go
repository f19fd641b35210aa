package http

import (
	"errors"
	"net/http"

	"bilancio/internal/amqp"
	"bilancio/internal/log"
	"bilancio/internal/services"
)

// parseBody reads the request body, answering 400 itself when it cannot.
func (s *Server) parseBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, bool) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		if wantsJSON(r) {
			writeJSONError(w, http.StatusBadRequest, "malformed request body")
		} else {
			BadRequestError("Malformed request.").Write(w)
		}
		return nil, false
	}
	return p, true
}

// writeFailure maps service errors: validation is 422, an unknown edit
// target 404, the rest 500.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.failedWrites.Add(1)
	if errors.Is(err, services.ErrTransactionNotFound) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Edit of unknown transaction",
			log.FieldOperation, op,
			log.FieldError, err.Error())
		if wantsJSON(r) {
			writeJSONError(w, http.StatusNotFound, "transaction not found")
		} else {
			NotFoundError("This transaction no longer exists.").Write(w)
		}
		return
	}
	if services.IsValidation(err) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rejected input",
			log.FieldOperation, op,
			log.FieldErrorType, log.ErrorTypeValidation,
			log.FieldError, err.Error())
		if wantsJSON(r) {
			writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		} else {
			UnprocessableEntityError(err.Error()).Write(w)
		}
		return
	}

	s.events.LogError(r.Context(), "Write failed", err, op,
		log.NewFields().WithUser(userID(r)).WithErrorType(log.ErrorTypeDatabase))
	if wantsJSON(r) {
		writeJSONError(w, http.StatusInternalServerError, "failed to save")
	} else {
		InternalServerError("Could not save. Please retry.").Write(w)
	}
}

// handleSaveTransaction creates on POST /transactions and replaces the
// transaction named by the path on POST /transactions/{id}.
func (s *Server) handleSaveTransaction(w http.ResponseWriter, r *http.Request) {
	p, ok := s.parseBody(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	op := log.OpCreate
	if id != "" {
		op = log.OpUpdate
	}

	tx, err := s.finance.SaveTransaction(r.Context(), userID(r), p.TransactionInput(id))
	if err != nil {
		s.writeFailure(w, r, op, err)
		return
	}
	s.savedWrites.Add(1)
	s.events.LogSaved(r.Context(), userID(r), amqp.EntityTransaction, tx.ID, op)

	if wantsJSON(r) || p.IsJSON() {
		status := http.StatusCreated
		if op == log.OpUpdate {
			status = http.StatusOK
		}
		writeJSON(w, status, newTransactionJSON(tx))
		return
	}
	msg := "Transaction added"
	if op == log.OpUpdate {
		msg = "Transaction updated"
	}
	SuccessResponse(msg).
		TriggerChanged(EventTransactionChanged, string(tx.Date.PeriodKey())).
		Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.finance.DeleteTransaction(r.Context(), userID(r), id); err != nil {
		s.writeFailure(w, r, log.OpDelete, err)
		return
	}
	s.savedWrites.Add(1)
	s.events.LogSaved(r.Context(), userID(r), amqp.EntityTransaction, id, log.OpDelete)

	if wantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	SuccessResponse("Transaction deleted").
		TriggerChanged(EventTransactionChanged, "").
		Write(w)
}

// handleSetGoal saves the monthly target; an empty amount removes it.
func (s *Server) handleSetGoal(w http.ResponseWriter, r *http.Request) {
	p, ok := s.parseBody(w, r)
	if !ok {
		return
	}
	g, err := s.finance.SetGoal(r.Context(), userID(r), p.Get("goal"))
	if err != nil {
		s.writeFailure(w, r, log.OpUpdate, err)
		return
	}
	s.savedWrites.Add(1)
	s.events.LogSaved(r.Context(), userID(r), amqp.EntityGoal, "", log.OpUpdate)

	if wantsJSON(r) || p.IsJSON() {
		writeJSON(w, http.StatusOK, map[string]string{"goal": g.Amount.String()})
		return
	}
	msg := "Goal saved"
	if !g.IsSet() {
		msg = "Goal removed"
	}
	SuccessResponse(msg).
		TriggerChanged(EventGoalChanged, "").
		Write(w)
}

func (s *Server) handleAddReminder(w http.ResponseWriter, r *http.Request) {
	p, ok := s.parseBody(w, r)
	if !ok {
		return
	}
	rem, err := s.finance.AddReminder(r.Context(), userID(r), p.ReminderInput())
	if err != nil {
		s.writeFailure(w, r, log.OpCreate, err)
		return
	}
	s.savedWrites.Add(1)
	s.events.LogSaved(r.Context(), userID(r), amqp.EntityReminder, rem.ID, log.OpCreate)

	if wantsJSON(r) || p.IsJSON() {
		writeJSON(w, http.StatusCreated, map[string]string{"id": rem.ID})
		return
	}
	SuccessResponse("Reminder added").
		TriggerChanged(EventReminderChanged, "").
		Write(w)
}

func (s *Server) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.finance.DeleteReminder(r.Context(), userID(r), id); err != nil {
		s.writeFailure(w, r, log.OpDelete, err)
		return
	}
	s.savedWrites.Add(1)
	s.events.LogSaved(r.Context(), userID(r), amqp.EntityReminder, id, log.OpDelete)

	if wantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	SuccessResponse("Reminder deleted").
		TriggerChanged(EventReminderChanged, "").
		Write(w)
}
