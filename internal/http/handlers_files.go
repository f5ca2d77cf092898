package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"

	"cashboard/internal/core"
	"cashboard/internal/export"
	"cashboard/internal/format"
	"cashboard/internal/log"
	"cashboard/internal/upload"
)

// multipartOverhead is the slack allowed on top of the file itself for
// boundaries and other form fields.
const multipartOverhead = 1 << 20

// Upload widget

func (s *Server) handleUploadView(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Load(w, r)
	s.partial(w, r, "upload.html", s.uploadData(sess))
}

func (s *Server) handleUploadSelect(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Load(w, r)

	f, err := readUploadedFile(w, r)
	if err == nil {
		err = sess.Upload.Select(f)
	}
	if err != nil {
		status := statusFor(err)
		msg := userMessage(err)
		if errors.Is(err, upload.ErrInvalidTransition) {
			status = http.StatusConflict
			msg = "An upload is already in progress"
		}
		s.reqLog(r).WarnContext(r.Context(), "File rejected",
			log.FieldOperation, log.OpUpload,
			log.FieldError, err.Error(),
			log.FieldErrorKind, errorType(err))
		view := s.uploadData(sess)
		if view.Message == "" {
			view.Message = msg
		}
		s.render(w, r, NewHTMXResponse().
			Status(status).
			HTML(s.templates, "upload.html", view).
			TriggerErrorNotification(msg))
		return
	}

	view := s.uploadData(sess)
	s.render(w, r, NewHTMXResponse().
		HTML(s.templates, "upload.html", view).
		TriggerUploadChanged(string(view.State)))
}

// readUploadedFile pulls the "file" part out of a multipart request.
func readUploadedFile(w http.ResponseWriter, r *http.Request) (core.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, core.MaxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(core.MaxUploadSize + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return core.File{}, &core.ValidationError{
				Field: "file",
				Err:   fmt.Errorf("file is too large, the limit is %s", format.Bytes(core.MaxUploadSize)),
			}
		}
		return core.File{}, &core.ValidationError{Field: "file", Err: errors.New("could not read the upload")}
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	part, header, err := r.FormFile("file")
	if err != nil {
		return core.File{}, &core.ValidationError{Field: "file", Err: errors.New("no file was provided")}
	}
	defer part.Close()

	data, err := io.ReadAll(io.LimitReader(part, core.MaxUploadSize+1))
	if err != nil {
		return core.File{}, &core.ValidationError{Field: "file", Err: fmt.Errorf("read upload: %w", err)}
	}
	size := header.Size
	if size == 0 {
		size = int64(len(data))
	}
	return core.File{
		Name:        sanitizeInput(header.Filename),
		ContentType: header.Header.Get("Content-Type"),
		Size:        size,
		Data:        data,
	}, nil
}

func (s *Server) handleUploadSubmit(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Load(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), uploadTimeout)
	defer cancel()

	err := sess.Upload.Submit(ctx, s.store)
	view := s.uploadData(sess)
	switch {
	case errors.Is(err, upload.ErrInvalidTransition):
		s.render(w, r, NewHTMXResponse().
			Status(http.StatusConflict).
			HTML(s.templates, "upload.html", view).
			TriggerErrorNotification("Select a file before uploading"))
	case err != nil:
		s.render(w, r, NewHTMXResponse().
			HTML(s.templates, "upload.html", view).
			TriggerUploadChanged(string(view.State)).
			TriggerErrorNotification(userMessage(err)))
	default:
		s.appMetrics.uploads.Add(1)
		rows := 0
		if view.Result != nil {
			rows = view.Result.RowsProcessed
		}
		s.reqLog(r).InfoContext(r.Context(), "Statement uploaded",
			log.FieldOperation, log.OpUpload,
			log.FieldRows, rows)
		s.render(w, r, NewHTMXResponse().
			HTML(s.templates, "upload.html", view).
			TriggerUploadChanged(string(view.State)).
			TriggerTransactionsChanged(len(s.store.Snapshot().Transactions)).
			TriggerSuccessNotification(view.Message))
	}
}

func (s *Server) handleUploadClear(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Load(w, r)
	if err := sess.Upload.Clear(); err != nil {
		s.render(w, r, NewHTMXResponse().
			Status(http.StatusConflict).
			HTML(s.templates, "upload.html", s.uploadData(sess)).
			TriggerErrorNotification("An upload is in progress"))
		return
	}
	view := s.uploadData(sess)
	s.render(w, r, NewHTMXResponse().
		HTML(s.templates, "upload.html", view).
		TriggerUploadChanged(string(view.State)))
}

// Export

func (s *Server) exportArtifact(r *http.Request) (export.Artifact, error) {
	f, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		return export.Artifact{}, err
	}
	return s.store.Export(f)
}

func (s *Server) handleExportDownload(w http.ResponseWriter, r *http.Request) {
	a, err := s.exportArtifact(r)
	if err != nil {
		ErrorResponse(statusFor(err), userMessage(err)).
			TriggerErrorNotification("Failed to export data").
			Write(w)
		return
	}
	s.appMetrics.exports.Add(1)
	s.reqLog(r).InfoContext(r.Context(), "Export downloaded",
		log.FieldOperation, log.OpExport,
		log.FieldFileName, a.Name,
		log.FieldFileSize, len(a.Data))

	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.Name))
	w.Header().Set("Content-Length", fmt.Sprint(len(a.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(a.Data)
}

func (s *Server) handleExportToSink(w http.ResponseWriter, r *http.Request) {
	if s.sink == nil {
		ErrorResponse(http.StatusServiceUnavailable, "No export destination is configured").
			TriggerErrorNotification("No export destination is configured").
			Write(w)
		return
	}
	a, err := s.exportArtifact(r)
	if err != nil {
		ErrorResponse(statusFor(err), userMessage(err)).
			TriggerErrorNotification("Failed to export data").
			Write(w)
		return
	}

	loc, err := s.sink.Put(r.Context(), a)
	if err != nil {
		log.NewStructuredLogger(s.reqLog(r)).LogError(r.Context(), "Export upload failed", err,
			log.ComponentExport, log.OpExport, log.NewFields().WithFile(a.Name, int64(len(a.Data))))
		InternalServerError("Failed to export data").
			TriggerErrorNotification("Failed to export data").
			Write(w)
		return
	}
	s.appMetrics.exports.Add(1)
	s.reqLog(r).InfoContext(r.Context(), "Export stored",
		log.FieldOperation, log.OpExport,
		log.FieldLocation, loc)
	NewHTMXResponse().
		Status(http.StatusOK).
		BodyHTML(`<span class="export-location">` + template.HTMLEscapeString(loc) + `</span>`).
		TriggerSuccessNotification("Export saved to " + loc).
		Write(w)
}
