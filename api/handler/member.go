package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/pkg/httpcontext"
	memberUC "github.com/fastygo/taskflow/usecase/member"
)

type MemberHandler struct {
	baseHandler
	uc *memberUC.UseCase
}

func NewMemberHandler(uc *memberUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *MemberHandler {
	return &MemberHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List members
// @Tags members
// @Router /api/v1/members [get]
func (h *MemberHandler) ListMembers(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	members, err := h.uc.ListMembers(stdCtx)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, members)
}

// @Summary Get member
// @Tags members
// @Router /api/v1/members/{id} [get]
func (h *MemberHandler) GetMember(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	member, err := h.uc.GetMember(stdCtx, id)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, member)
}
