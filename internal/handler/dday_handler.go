package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hitoshi/ddaykeeper/internal/dday"
	"github.com/hitoshi/ddaykeeper/internal/middleware"
	"github.com/hitoshi/ddaykeeper/internal/model"
)

// DDayServiceInterface はD-DayハンドラーがD-Day管理のために必要とするサービスインターフェース。
type DDayServiceInterface interface {
	List(ctx context.Context, userID string) ([]dday.DDayInfo, error)
	Get(ctx context.Context, userID, id string) (*dday.DDayInfo, error)
	Create(ctx context.Context, userID string, input dday.CreateInput) (*dday.DDayInfo, error)
	Update(ctx context.Context, userID, id string, input dday.UpdateInput) (*dday.DDayInfo, error)
	Delete(ctx context.Context, userID, id string) error
}

// DDayHandler はD-Day管理のHTTPハンドラー。
type DDayHandler struct {
	service DDayServiceInterface
}

// NewDDayHandler はDDayHandlerを生成する。
func NewDDayHandler(service DDayServiceInterface) *DDayHandler {
	return &DDayHandler{service: service}
}

// createDDayRequest はD-Day作成リクエストのボディ。
type createDDayRequest struct {
	Title       string  `json:"title"`
	TargetDate  string  `json:"targetDate"`
	Description *string `json:"description"`
}

// updateDDayRequest はD-Day部分更新リクエストのボディ。
// nilのフィールドは変更しない。
type updateDDayRequest struct {
	Title       *string `json:"title"`
	TargetDate  *string `json:"targetDate"`
	Description *string `json:"description"`
}

// ddayResponse はD-Day情報のAPIレスポンス。
// daysRemainingとdisplayTextは読み取り時に計算される派生値。
type ddayResponse struct {
	ID            string  `json:"id"`
	UserID        string  `json:"userId"`
	Title         string  `json:"title"`
	TargetDate    string  `json:"targetDate"`
	Description   *string `json:"description"`
	CreatedAt     string  `json:"createdAt"`
	UpdatedAt     string  `json:"updatedAt"`
	DaysRemaining int     `json:"daysRemaining"`
	DisplayText   string  `json:"displayText"`
}

// List は認証済みユーザーの全D-Dayを返す。
// GET /api/ddays
func (h *DDayHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	infos, err := h.service.List(r.Context(), user.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	ddays := make([]ddayResponse, 0, len(infos))
	for i := range infos {
		ddays = append(ddays, toDDayResponse(&infos[i]))
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"ddays": ddays,
	})
}

// Get は指定IDのD-Dayを返す。
// GET /api/ddays/{id}
func (h *DDayHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	id, ok := parseDDayID(w, r)
	if !ok {
		return
	}

	info, err := h.service.Get(r.Context(), user.ID, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"dday": toDDayResponse(info),
	})
}

// Create は新しいD-Dayを作成する。
// POST /api/ddays
func (h *DDayHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createDDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingRequiredFieldsError())
		return
	}

	info, err := h.service.Create(r.Context(), user.ID, dday.CreateInput{
		Title:       req.Title,
		TargetDate:  req.TargetDate,
		Description: req.Description,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, map[string]any{
		"dday": toDDayResponse(info),
	})
}

// Update はD-Dayを部分更新する。指定されたフィールドのみ変更する。
// PUT /api/ddays/{id}
func (h *DDayHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	id, ok := parseDDayID(w, r)
	if !ok {
		return
	}

	var req updateDDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingRequiredFieldsError())
		return
	}

	info, err := h.service.Update(r.Context(), user.ID, id, dday.UpdateInput{
		Title:       req.Title,
		TargetDate:  req.TargetDate,
		Description: req.Description,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"dday": toDDayResponse(info),
	})
}

// Delete はD-Dayを削除する。
// DELETE /api/ddays/{id}
func (h *DDayHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	id, ok := parseDDayID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), user.ID, id); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"message": "D-DAYを削除しました。",
	})
}

// --- ヘルパー関数 ---

// parseDDayID はパスパラメータのIDを検証する。
// UUIDとして解析できない場合は400を書き込み、falseを返す。
func parseDDayID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidIDError())
		return "", false
	}
	return id, true
}

// toDDayResponse はdday.DDayInfoからAPIレスポンスに変換する。
func toDDayResponse(info *dday.DDayInfo) ddayResponse {
	return ddayResponse{
		ID:            info.ID,
		UserID:        info.UserID,
		Title:         info.Title,
		TargetDate:    info.TargetDate.Format("2006-01-02"),
		Description:   info.Description,
		CreatedAt:     info.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     info.UpdatedAt.UTC().Format(time.RFC3339),
		DaysRemaining: info.Countdown.DaysRemaining,
		DisplayText:   info.Countdown.DisplayText,
	}
}

// writeJSONResponse はJSONレスポンスを書き込む。
func writeJSONResponse(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// handleCallbackError はOAuthコールバック処理の失敗を一般的な文言で返す。
// 上流エラーの詳細はクライアントに出さない。
func handleCallbackError(w http.ResponseWriter, err error) {
	slog.Error("oauth callback failed", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewCallbackError())
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeMissingCode,
		model.ErrCodeInvalidID,
		model.ErrCodeMissingRequiredFields,
		model.ErrCodeInvalidDate,
		model.ErrCodeTitleTooLong,
		model.ErrCodeDescriptionTooLong:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorized,
		model.ErrCodeTokenExpired,
		model.ErrCodeInvalidToken:
		return http.StatusUnauthorized
	case model.ErrCodeAccessDenied:
		return http.StatusForbidden
	case model.ErrCodeDDayNotFound, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeConflict:
		return http.StatusConflict
	case model.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
