package api

import (
	"encoding/json"
	"net/http"
)

// projectName reads the mandatory projectName query parameter.
func projectName(r *http.Request) string {
	return r.URL.Query().Get("projectName")
}

func projectReadHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := cfg.Store.Read(projectName(r))
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, doc)
	}
}

func timecodeCreateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TimecodeCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Timecode.ID == "" {
			WriteError(w, http.StatusBadRequest, "timecode id is required", "BAD_REQUEST")
			return
		}

		tc, err := cfg.Store.AddTimecode(projectName(r), req.Timecode, req.FileContent)
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, TimecodeCreateResponse{Message: "timecode saved", Timecode: tc})
	}
}

func projectUpdateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ProjectUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		project := projectName(r)
		var err error

		switch {
		case req.Scope == "timecode-move" && req.JSON != nil:
			err = cfg.Store.ReplaceDocument(project, req.JSON)
		case (req.Scope == "timecodes" || req.Scope == "script-timecodes") && req.Timecode != nil:
			// Timecode fields are canonical at the root collection; both
			// scopes take the same fan-out path so the copies cannot drift.
			err = cfg.Store.UpdateTimecode(project, req.Timecode.ID, req.Timecode.TimecodePatch)
		case req.Scope == "script-audios" && req.Timecode != nil:
			err = cfg.Store.UpdateSceneAudios(project, req.Timecode.ID, req.Timecode.TimecodePatch)
		case req.Scope == "script" && req.Script != nil:
			err = cfg.Store.UpdateScene(project, req.Script.ID, req.Script.ScenePatch)
		default:
			WriteError(w, http.StatusBadRequest, "unknown update scope", "BAD_REQUEST")
			return
		}

		if err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, MessageResponse{Message: "updated"})
	}
}

func timecodeDeleteHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TimecodeDeleteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.ID == "" {
			WriteError(w, http.StatusBadRequest, "timecode id is required", "BAD_REQUEST")
			return
		}

		if err := cfg.Store.DeleteTimecode(projectName(r), req.ID); err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, MessageResponse{Message: "timecode removed"})
	}
}

func projectResetHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Store.Reset(projectName(r)); err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "project cleared"})
	}
}
