package web

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"

	router "github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"

	portal "github.com/goliatone/go-vendor-portal/components/portal"
	"github.com/goliatone/go-vendor-portal/components/portal/commands"
	"github.com/goliatone/go-vendor-portal/components/portal/queries"
)

// Login page texts.
const (
	MessageLoginSuccess  = "Login successful."
	MessageLoginFailed   = "Login failed. Please try again."
	MessageLoggedOut     = "You have been logged out successfully"
	MessageMissingFields = "Please enter both vendor ID and password"
	MessageProfileFailed = "Failed to load profile"
)

func (h *handlers) loginPage(c router.Context) error {
	if _, err := h.cfg.Gate.Resolve(c.Context(), c.Cookies(h.cfg.CookieName)); err == nil {
		return c.Redirect(pathPortal, http.StatusSeeOther)
	}
	view := portal.LoginView{Demo: h.cfg.DemoLogin}
	if messages, ok := h.flash.GetMessages(c); ok {
		q := portal.NewToastQueue()
		for _, m := range messages {
			q.Notify(portal.ToastLevel(m.Type), m.Text)
		}
		view.Toasts = q.Drain()
	}
	return h.renderLogin(c, http.StatusOK, view)
}

func (h *handlers) login(c router.Context) error {
	var creds portal.Credentials
	if err := c.Bind(&creds); err != nil {
		return h.loginFailed(c, http.StatusBadRequest, creds.VendorID, MessageMissingFields)
	}
	var session portal.Session
	err := h.signIn.Execute(c.Context(), commands.LoginInput{Credentials: creds, Result: &session})
	switch {
	case err == nil:
	case errors.Is(err, portal.ErrMissingCredentials):
		return h.loginFailed(c, http.StatusBadRequest, creds.VendorID, MessageMissingFields)
	case errors.Is(err, portal.ErrInvalidCredentials):
		return h.loginFailed(c, http.StatusUnauthorized, creds.VendorID, credentialsMessage(err))
	default:
		h.cfg.Logger.ErrorContext(c.Context(), "login failed", "vendor_id", creds.VendorID, "error", err)
		return h.loginFailed(c, http.StatusBadGateway, creds.VendorID, MessageLoginFailed)
	}

	setSessionCookie(c, h.cfg, session)
	h.cfg.Service.Workspace(session).Toasts().Success(MessageLoginSuccess)
	if err := h.selector.Execute(c.Context(), commands.SelectSectionInput{Session: session, Section: portal.SectionDashboard}); err != nil {
		h.cfg.Logger.WarnContext(c.Context(), "dashboard load failed", "customer_id", session.CustomerID, "error", err)
	}
	h.cfg.Logger.InfoContext(c.Context(), "vendor signed in", "customer_id", session.CustomerID)
	return c.Redirect(pathPortal, http.StatusSeeOther)
}

func (h *handlers) loginFailed(c router.Context, status int, vendorID, message string) error {
	q := portal.NewToastQueue()
	q.Error(message)
	return h.renderLogin(c, status, portal.LoginView{
		VendorID: vendorID,
		Error:    message,
		Toasts:   q.Drain(),
		Demo:     h.cfg.DemoLogin,
	})
}

func credentialsMessage(err error) string {
	prefix := portal.ErrInvalidCredentials.Error() + ": "
	if msg := err.Error(); strings.HasPrefix(msg, prefix) {
		return strings.TrimPrefix(msg, prefix)
	}
	return "Invalid vendor ID or password"
}

func (h *handlers) logout(c router.Context) error {
	id := c.Cookies(h.cfg.CookieName)
	if err := h.signOut.Execute(c.Context(), commands.LogoutInput{SessionID: id}); err != nil {
		h.cfg.Logger.ErrorContext(c.Context(), "logout failed", "error", err)
	}
	clearSessionCookie(c, h.cfg)
	h.flash.SetMessage(c, flash.Message{Type: string(portal.ToastInfo), Text: MessageLoggedOut})
	return c.Redirect(pathLogin, http.StatusSeeOther)
}

func (h *handlers) portalPage(c router.Context) error {
	view, err := h.pages.Query(c.Context(), queries.PageInput{
		Session:     sessionFrom(c),
		Locale:      inferLocale(c),
		DrainToasts: true,
	})
	if err != nil {
		return h.fail(c, err)
	}
	var buf bytes.Buffer
	if err := h.cfg.Pages.RenderPortal(view, &buf); err != nil {
		return h.fail(c, err)
	}
	c.SetHeader("Content-Type", "text/html; charset=utf-8")
	return c.Send(buf.Bytes())
}

func (h *handlers) selectSection(c router.Context) error {
	err := h.selector.Execute(c.Context(), commands.SelectSectionInput{
		Session: sessionFrom(c),
		Section: portal.SectionID(c.Param("id")),
	})
	if err != nil {
		return h.fail(c, err)
	}
	return backToPortal(c)
}

func (h *handlers) search(c router.Context) error {
	return h.updateTable(c, commands.UpdateTableInput{Action: commands.TableSearch, Term: c.Query("q")})
}

func (h *handlers) sort(c router.Context) error {
	return h.updateTable(c, commands.UpdateTableInput{Action: commands.TableSort, SortKey: c.Param("key")})
}

func (h *handlers) page(c router.Context) error {
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, errors.New("page must be a number"))
	}
	return h.updateTable(c, commands.UpdateTableInput{Action: commands.TablePage, Page: n})
}

func (h *handlers) updateTable(c router.Context, input commands.UpdateTableInput) error {
	input.Session = sessionFrom(c)
	var state portal.TableState
	input.Result = &state
	if err := h.table.Execute(c.Context(), input); err != nil {
		return h.fail(c, err)
	}
	if wantsJSON(c) {
		return c.JSON(http.StatusOK, state)
	}
	return backToPortal(c)
}

func (h *handlers) export(c router.Context) error {
	var (
		buf    bytes.Buffer
		export portal.Export
	)
	err := h.exporter.Execute(c.Context(), commands.ExportTableInput{
		Session: sessionFrom(c),
		Out:     &buf,
		Result:  &export,
	})
	switch {
	case err == nil:
	case errors.Is(err, portal.ErrUnknownSection):
		return respondError(c, http.StatusBadRequest, errors.New("no table selected"))
	default:
		h.cfg.Logger.ErrorContext(c.Context(), "table export failed", "error", err)
		return backToPortal(c)
	}
	return router.NewDownloadResponder(c).WriteDownload(c.Context(), router.DownloadPayload{
		ContentType: portal.ExportContentType,
		Filename:    export.Filename,
		Bytes:       buf.Bytes(),
	})
}

func (h *handlers) downloadInvoice(c router.Context) error {
	var download portal.Download
	err := h.invoice.Execute(c.Context(), commands.DownloadInvoiceInput{
		Session:    sessionFrom(c),
		DocumentID: c.Param("id"),
		Result:     &download,
	})
	switch {
	case err == nil:
	case errors.Is(err, portal.ErrDownloadUnavailable):
		return respondError(c, http.StatusNotFound, err)
	default:
		h.cfg.Logger.WarnContext(c.Context(), "invoice download failed", "document_id", c.Param("id"), "error", err)
		return backToPortal(c)
	}
	return router.NewDownloadResponder(c).WriteDownload(c.Context(), router.DownloadPayload{
		ContentType: download.ContentType,
		Filename:    download.Filename,
		Bytes:       download.Content,
	})
}

func (h *handlers) listToasts(c router.Context) error {
	toasts, err := h.toasts.Query(c.Context(), queries.ToastsInput{
		Session: sessionFrom(c),
		Drain:   queryBool(c, "drain"),
	})
	if err != nil {
		return h.fail(c, err)
	}
	if toasts == nil {
		toasts = []portal.Toast{}
	}
	return c.JSON(http.StatusOK, map[string]any{"toasts": toasts})
}

func (h *handlers) dismissToast(c router.Context) error {
	err := h.dismiss.Execute(c.Context(), commands.DismissToastInput{
		Session: sessionFrom(c),
		ToastID: c.Param("id"),
	})
	if err != nil {
		return h.fail(c, err)
	}
	if wantsJSON(c) {
		return c.SendStatus(http.StatusNoContent)
	}
	return backToPortal(c)
}

func (h *handlers) toggleSidebar(c router.Context) error {
	return h.toggle(c, "")
}

func (h *handlers) toggleGroup(c router.Context) error {
	return h.toggle(c, c.Param("id"))
}

func (h *handlers) toggle(c router.Context, group string) error {
	if err := h.nav.Execute(c.Context(), commands.ToggleNavigationInput{Session: sessionFrom(c), Group: group}); err != nil {
		return h.fail(c, err)
	}
	return backToPortal(c)
}

func (h *handlers) refreshProfile(c router.Context) error {
	session := sessionFrom(c)
	var refreshed portal.Session
	if err := h.refresh.Execute(c.Context(), commands.RefreshProfileInput{Session: session, Result: &refreshed}); err != nil {
		h.cfg.Logger.WarnContext(c.Context(), "profile refresh failed", "customer_id", session.CustomerID, "error", err)
	}
	if refreshed.Vendor == nil {
		h.cfg.Service.Workspace(session).Toasts().Error(MessageProfileFailed)
	}
	return backToPortal(c)
}

func (h *handlers) renderLogin(c router.Context, status int, view portal.LoginView) error {
	var buf bytes.Buffer
	if err := h.cfg.Pages.RenderLogin(view, &buf); err != nil {
		return h.fail(c, err)
	}
	c.SetHeader("Content-Type", "text/html; charset=utf-8")
	return c.Status(status).Send(buf.Bytes())
}

func (h *handlers) fail(c router.Context, err error) error {
	switch {
	case errors.Is(err, portal.ErrUnauthenticated):
		clearSessionCookie(c, h.cfg)
		if wantsJSON(c) {
			return respondError(c, http.StatusUnauthorized, err)
		}
		return c.Redirect(pathLogin, http.StatusSeeOther)
	case errors.Is(err, portal.ErrUnknownSection):
		return respondError(c, http.StatusNotFound, err)
	default:
		h.cfg.Logger.ErrorContext(c.Context(), "portal request failed", "path", c.Path(), "error", err)
		return respondError(c, http.StatusInternalServerError, errors.New("internal error"))
	}
}

func backToPortal(c router.Context) error {
	return c.Redirect(pathPortal, http.StatusSeeOther)
}

func queryBool(c router.Context, name string) bool {
	v, _ := strconv.ParseBool(c.Query(name))
	return v
}
