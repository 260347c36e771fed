package rest

import (
	"errors"
	"expvar"
	"fmt"
	"mime"
	"net/http"

	"github.com/inbucket/inbound/pkg/mandrill"
	"github.com/inbucket/inbound/pkg/metric"
	"github.com/inbucket/inbound/pkg/rest/model"
	"github.com/inbucket/inbound/pkg/server/web"
	"github.com/rs/zerolog/log"
)

// multipartMemory is the portion of a multipart webhook body held in memory; the remainder spills
// to temporary files.
const multipartMemory = 10 << 20

var (
	expBatchesTotal     = new(expvar.Int)
	expMessagesTotal    = new(expvar.Int)
	expRejectedTotal    = new(expvar.Int)
	expIgnoredTotal     = new(expvar.Int)
	expFailedTotal      = new(expvar.Int)
	expSkippedTotal     = new(expvar.Int)
	expAttachmentsTotal = new(expvar.Int)
)

func init() {
	m := expvar.NewMap("webhook")
	metric.Track(m, "Batches", expBatchesTotal)
	metric.Track(m, "Messages", expMessagesTotal)
	metric.Track(m, "Rejected", expRejectedTotal)
	metric.Track(m, "Ignored", expIgnoredTotal)
	metric.Track(m, "Failed", expFailedTotal)
	metric.Track(m, "Skipped", expSkippedTotal)
	metric.Track(m, "Attachments", expAttachmentsTotal)
}

// InboundProbeV1 answers the provider's URL validation request.
func InboundProbeV1(w http.ResponseWriter, req *http.Request, ctx *web.Context) (err error) {
	w.WriteHeader(http.StatusOK)
	return nil
}

// InboundPostV1 normalizes a webhook delivery and hands each message to the configured handler.
// Messages and their attachments are released once the handler returns.
func InboundPostV1(w http.ResponseWriter, req *http.Request, ctx *web.Context) (err error) {
	conf := ctx.RootConfig
	req.Body = http.MaxBytesReader(w, req.Body, conf.Web.MaxBodyBytes)
	if err := parseWebhookForm(req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return nil
		}
		http.Error(w, "Unable to parse form: "+err.Error(), http.StatusBadRequest)
		return nil
	}
	payload := req.PostFormValue(conf.Webhook.FormField)
	if payload == "" {
		http.Error(w, fmt.Sprintf("Missing form field %q", conf.Webhook.FormField),
			http.StatusBadRequest)
		return nil
	}

	batch, err := ctx.Normalizer.Normalize([]byte(payload))
	if err != nil {
		if errors.Is(err, mandrill.ErrDecode) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return nil
		}
		return err
	}
	logger := log.With().Str("module", "rest").Str("batch", batch.ID).Logger()
	defer func() {
		if cerr := batch.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("Failed to release attachments")
		}
	}()

	expBatchesTotal.Add(1)
	expRejectedTotal.Add(int64(batch.Rejected))
	expIgnoredTotal.Add(int64(batch.Ignored))
	expFailedTotal.Add(int64(len(batch.Failures)))

	result := &model.JSONBatchResultV1{
		Batch:    batch.ID,
		Rejected: batch.Rejected,
		Ignored:  batch.Ignored,
		Failed:   len(batch.Failures),
	}
	for _, f := range batch.Failures {
		result.Failures = append(result.Failures,
			&model.JSONEventFailureV1{Index: f.Index, Error: f.Err.Error()})
	}

	hctx := logger.WithContext(req.Context())
	for i, msg := range batch.Messages {
		md := msg.Metadata(batch.ID, batch.Events[i])
		if ctx.Extensions != nil {
			resp := ctx.Extensions.Events.BeforeMessageHandled.Emit(&md)
			if resp != nil && resp.Skip {
				logger.Debug().Int("index", md.Index).Str("reason", resp.Reason).
					Msg("Extension skipped message")
				expSkippedTotal.Add(1)
				result.Skipped++
				continue
			}
		}
		if err := ctx.Handler.Handle(hctx, msg); err != nil {
			return fmt.Errorf("handling message %d of batch %s: %w", md.Index, batch.ID, err)
		}
		expMessagesTotal.Add(1)
		expAttachmentsTotal.Add(int64(len(msg.Attachments)))
		result.Accepted++
	}

	return web.RenderJSON(w, result)
}

// parseWebhookForm parses a url-encoded or multipart webhook body into req.PostForm.
func parseWebhookForm(req *http.Request) error {
	mediaType, _, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if err == nil && mediaType == "multipart/form-data" {
		return req.ParseMultipartForm(multipartMemory)
	}
	return req.ParseForm()
}
