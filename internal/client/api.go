package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/quotedesk/quotedesk/internal/auth"
	"github.com/quotedesk/quotedesk/internal/documents"
	"github.com/quotedesk/quotedesk/internal/payments"
	"github.com/quotedesk/quotedesk/internal/pricing"
	"github.com/quotedesk/quotedesk/internal/shared"
)

// Login exchanges email and password for tokens and stores them.
func (c *Client) Login(ctx context.Context, email, password string) (*auth.LoginResult, error) {
	req, err := jsonRequest(http.MethodPost, "/token", map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}
	req.anonymous = true
	var out auth.LoginResult
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	c.creds.Set(out.Access, out.Refresh)
	return &out, nil
}

// Logout revokes the refresh token and forgets the stored credentials.
func (c *Client) Logout(ctx context.Context) error {
	_, refresh := c.creds.Tokens()
	defer c.creds.Clear()
	if refresh == "" {
		return nil
	}
	return c.doJSON(ctx, http.MethodPost, "/token/logout", map[string]string{"refresh": refresh}, nil)
}

func collection(kind pricing.Kind) string {
	return "/" + string(kind) + "s"
}

// GetDocument loads a quotation or invoice aggregate.
func (c *Client) GetDocument(ctx context.Context, kind pricing.Kind, id int64) (*documents.Document, error) {
	var doc documents.Document
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("%s/%d", collection(kind), id), nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListOptions are the query parameters of list endpoints.
type ListOptions struct {
	Page     int
	PageSize int
	Ordering string
	Search   string
	Filters  map[string]string
}

func (o ListOptions) values() url.Values {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(o.PageSize))
	}
	if o.Ordering != "" {
		q.Set("ordering", o.Ordering)
	}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	for k, v := range o.Filters {
		q.Set(k, v)
	}
	return q
}

// ListDocuments returns one page of the document list.
func (c *Client) ListDocuments(ctx context.Context, kind pricing.Kind, opts ListOptions) (*shared.Page[documents.Summary], error) {
	req := request{method: http.MethodGet, path: collection(kind), query: opts.values()}
	var page shared.Page[documents.Summary]
	if err := c.do(ctx, req, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreateDocument creates a document together with its first version.
func (c *Client) CreateDocument(ctx context.Context, kind pricing.Kind, body documents.CreateRequest) (*documents.Document, error) {
	var doc documents.Document
	if err := c.doJSON(ctx, http.MethodPost, collection(kind), body, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// SaveVersion submits a snapshot. SaveNew appends a version to the document;
// SaveCurrent overwrites the version named in body.Version.
func (c *Client) SaveVersion(ctx context.Context, kind pricing.Kind, mode pricing.SaveMode, documentID int64, body documents.SaveVersionRequest) (*documents.Version, error) {
	path := "/" + string(kind) + "-versions"
	method := http.MethodPost
	switch mode {
	case pricing.SaveNew:
		body.Version = nil
		if kind == pricing.KindInvoice {
			body.Invoice, body.Quotation = &documentID, nil
		} else {
			body.Quotation, body.Invoice = &documentID, nil
		}
	case pricing.SaveCurrent:
		if body.Version == nil {
			return nil, fmt.Errorf("overwrite requires a version number")
		}
		method = http.MethodPatch
		path = fmt.Sprintf("%s/%d", path, documentID)
	default:
		return nil, fmt.Errorf("unknown save mode %q", mode)
	}
	var v documents.Version
	if err := c.doJSON(ctx, method, path, body, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// ListCategories returns every confirmed adjustment category.
func (c *Client) ListCategories(ctx context.Context) ([]pricing.Category, error) {
	var out []pricing.Category
	if err := c.doJSON(ctx, http.MethodGet, "/price-adjustments", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCategory stores a category directly. An empty id lets the server assign one.
func (c *Client) CreateCategory(ctx context.Context, id, name string) (*pricing.Category, error) {
	var out pricing.Category
	if err := c.doJSON(ctx, http.MethodPost, "/price-adjustments", pricing.NewCategory{ID: id, Name: name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LatestNumber returns the next suggested number for docType (QUOTATION,
// INVOICE or RECEIPT). A zero userID means the logged-in user.
func (c *Client) LatestNumber(ctx context.Context, docType string, userID int64) (string, error) {
	q := url.Values{"document_type": {docType}}
	if userID > 0 {
		q.Set("user_id", strconv.FormatInt(userID, 10))
	}
	var out struct {
		LatestNumber string `json:"latest_number"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/latest-number", query: q}, &out); err != nil {
		return "", err
	}
	return out.LatestNumber, nil
}

// Upload describes an attachment being uploaded.
type Upload struct {
	Filename        string
	Description     string
	DocumentType    string
	ReferenceNumber string
}

// UploadAttachment sends content as a multipart upload and returns the attachment id.
func (c *Client) UploadAttachment(ctx context.Context, in Upload, content io.Reader) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", in.Filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	for name, value := range map[string]string{
		"original_filename": in.Filename,
		"description":       in.Description,
		"document_type":     in.DocumentType,
		"reference_number":  in.ReferenceNumber,
	} {
		if err := writer.WriteField(name, value); err != nil {
			return "", err
		}
	}
	if err := writer.Close(); err != nil {
		return "", err
	}
	req := request{
		method:      http.MethodPost,
		path:        "/document-attachments/upload",
		body:        buf.Bytes(),
		contentType: writer.FormDataContentType(),
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, req, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// DownloadAttachment copies the attachment body into w and returns its content type.
func (c *Client) DownloadAttachment(ctx context.Context, id string, w io.Writer) (string, error) {
	resp, err := c.send(ctx, request{method: http.MethodGet, path: "/document-attachments/" + url.PathEscape(id)})
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", decode(resp, nil)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", fmt.Errorf("%w: download %s: %v", ErrTransport, id, err)
	}
	return resp.Header.Get("Content-Type"), nil
}

// CreatePayment records a payment. A non-empty key is sent as the
// Idempotency-Key header so retries do not record the payment twice.
func (c *Client) CreatePayment(ctx context.Context, body payments.CreatePaymentRequest, key string) (*payments.Payment, error) {
	req, err := jsonRequest(http.MethodPost, "/payments", body)
	if err != nil {
		return nil, err
	}
	if key != "" {
		req.header = http.Header{shared.IdempotencyHeader: {key}}
	}
	var out payments.Payment
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// InvoicePayments lists the payments recorded against an invoice.
func (c *Client) InvoicePayments(ctx context.Context, invoiceID int64) ([]payments.Payment, error) {
	req := request{
		method: http.MethodGet,
		path:   fmt.Sprintf("/invoices/%d/payments", invoiceID),
		query:  url.Values{"page_size": {"200"}},
	}
	var page shared.Page[payments.Payment]
	if err := c.do(ctx, req, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}
