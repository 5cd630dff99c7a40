package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/absmach/fedkit/pkg/api"
	pkgerrors "github.com/absmach/fedkit/pkg/errors"
	"github.com/absmach/fedkit/pkg/model"
	"github.com/absmach/fedkit/pkg/schema"
	"github.com/absmach/fedkit/train"
	"github.com/absmach/supermq"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	maxFileSize = 1024 * 1024 * 100
	maxBodySize = 1024 * 1024
	fileKey     = "file"
	idKey       = "id"
)

func MakeHandler(svc train.Service, logger *slog.Logger, instanceID string) http.Handler {
	mux := chi.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(apiutil.LoggingErrorEncoder(logger, encodeError)),
	}

	mux.Route("/train", func(r chi.Router) {
		r.Route("/models", func(r chi.Router) {
			r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
				listModelsEndpoint(svc),
				decodeListReq,
				api.EncodeResponse,
				opts...,
			), "list-models").ServeHTTP)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
					viewModelEndpoint(svc),
					decodeEntityReq,
					api.EncodeResponse,
					opts...,
				), "view-model").ServeHTTP)
				r.Put("/file", otelhttp.NewHandler(kithttp.NewServer(
					uploadModelFileEndpoint(svc),
					decodeUploadFileReq(model.TFLite),
					api.EncodeResponse,
					opts...,
				), "upload-model-file").ServeHTTP)
				r.Get("/file", otelhttp.NewHandler(kithttp.NewServer(
					downloadModelFileEndpoint(svc),
					decodeDownloadFileReq(model.TFLite),
					encodeFileResponse,
					opts...,
				), "download-model-file").ServeHTTP)
				r.Put("/mlmodel", otelhttp.NewHandler(kithttp.NewServer(
					uploadModelFileEndpoint(svc),
					decodeUploadFileReq(model.MLModel),
					api.EncodeResponse,
					opts...,
				), "upload-mlmodel-file").ServeHTTP)
				r.Get("/mlmodel", otelhttp.NewHandler(kithttp.NewServer(
					downloadModelFileEndpoint(svc),
					decodeDownloadFileReq(model.MLModel),
					encodeFileResponse,
					opts...,
				), "download-mlmodel-file").ServeHTTP)
			})
		})

		r.Post("/advertised", otelhttp.NewHandler(kithttp.NewServer(
			advertiseDataEndpoint(svc),
			decodeAdvertisedReq,
			api.EncodeResponse,
			opts...,
		), "advertise-data").ServeHTTP)
		r.Post("/server", otelhttp.NewHandler(kithttp.NewServer(
			postServerDataEndpoint(svc),
			decodeServerDataReq,
			api.EncodeResponse,
			opts...,
		), "post-server-data").ServeHTTP)
		r.Post("/upload", otelhttp.NewHandler(kithttp.NewServer(
			uploadDataEndpoint(svc),
			decodeUploadReq,
			api.EncodeResponse,
			opts...,
		), "upload-data").ServeHTTP)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
				listSessionsEndpoint(svc),
				decodeListReq,
				api.EncodeResponse,
				opts...,
			), "list-sessions").ServeHTTP)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
					viewSessionEndpoint(svc),
					decodeEntityReq,
					api.EncodeResponse,
					opts...,
				), "view-session").ServeHTTP)
				r.Delete("/", otelhttp.NewHandler(kithttp.NewServer(
					endSessionEndpoint(svc),
					decodeEntityReq,
					api.EncodeResponse,
					opts...,
				), "end-session").ServeHTTP)
			})
		})
	})

	mux.Get("/health", supermq.Health("fedkit", instanceID))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

// encodeError maps service errors that carry no transport semantics of their
// own onto the shared error classes.
func encodeError(ctx context.Context, err error, w http.ResponseWriter) {
	switch {
	case errors.Is(err, train.ErrMLModelUnavailable):
		err = errors.Join(pkgerrors.ErrConflict, err)
	case errors.Is(err, train.ErrInvalidFileKind), errors.Is(err, train.ErrEmptyFile):
		err = errors.Join(apiutil.ErrValidation, err)
	}
	api.EncodeError(ctx, err, w)
}

func decodeListReq(_ context.Context, r *http.Request) (any, error) {
	o, err := apiutil.ReadNumQuery[uint64](r, api.OffsetKey, api.DefOffset)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	l, err := apiutil.ReadNumQuery[uint64](r, api.LimitKey, api.DefLimit)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	return listReq{
		offset: o,
		limit:  l,
	}, nil
}

func decodeEntityReq(_ context.Context, r *http.Request) (any, error) {
	id, err := readID(r)
	if err != nil {
		return nil, err
	}

	return entityReq{id: id}, nil
}

func decodeAdvertisedReq(_ context.Context, r *http.Request) (any, error) {
	raw, err := decodeBody(r)
	if err != nil {
		return nil, err
	}
	req, err := train.BindAdvertisedData(raw)
	if err != nil {
		return nil, err
	}

	return advertisedReq{AdvertisedData: req}, nil
}

func decodeServerDataReq(_ context.Context, r *http.Request) (any, error) {
	raw, err := decodeBody(r)
	if err != nil {
		return nil, err
	}
	req, err := train.BindPostServerData(raw)
	if err != nil {
		return nil, err
	}

	return serverDataReq{PostServerData: req}, nil
}

func decodeUploadReq(_ context.Context, r *http.Request) (any, error) {
	raw, err := decodeBody(r)
	if err != nil {
		return nil, err
	}
	req, err := train.BindUploadData(raw)
	if err != nil {
		return nil, err
	}

	return uploadReq{UploadData: req}, nil
}

func decodeUploadFileReq(kind model.FileKind) kithttp.DecodeRequestFunc {
	return func(_ context.Context, r *http.Request) (any, error) {
		id, err := readID(r)
		if err != nil {
			return nil, err
		}

		r.Body = http.MaxBytesReader(nil, r.Body, maxFileSize)
		if err := r.ParseMultipartForm(maxFileSize); err != nil {
			return nil, fieldError(fileKey, schema.CodeInvalid, "must be a multipart form upload")
		}
		file, header, err := r.FormFile(fileKey)
		if err != nil {
			return nil, fieldError(fileKey, schema.CodeRequired, "field is required")
		}
		defer file.Close()

		if !strings.HasSuffix(strings.ToLower(header.Filename), kind.Extension()) {
			return nil, fieldError(fileKey, schema.CodeInvalid, fmt.Sprintf("must have the %s extension", kind.Extension()))
		}
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, err
		}

		return fileReq{
			id:   id,
			kind: kind,
			data: data,
		}, nil
	}
}

func decodeDownloadFileReq(kind model.FileKind) kithttp.DecodeRequestFunc {
	return func(_ context.Context, r *http.Request) (any, error) {
		id, err := readID(r)
		if err != nil {
			return nil, err
		}

		return fileReq{id: id, kind: kind}, nil
	}
}

func encodeFileResponse(_ context.Context, w http.ResponseWriter, response any) error {
	res, ok := response.(fileRes)
	if !ok {
		return pkgerrors.ErrInvalidData
	}

	w.Header().Set("Content-Type", api.OctetContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.data)))
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(res.data)

	return err
}

// decodeBody reads a JSON or CBOR object into a raw field map.
func decodeBody(r *http.Request) (map[string]any, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	body := io.LimitReader(r.Body, maxBodySize)
	switch mediaType {
	case api.ContentType:
		return schema.DecodeJSON(body)
	case api.CBORContentType:
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, errors.Join(apiutil.ErrValidation, err)
		}

		return schema.DecodeCBOR(data)
	default:
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}
}

func readID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, idKey), 10, 64)
	if err != nil {
		return 0, fieldError(idKey, schema.CodeInvalidType, "must be an integer")
	}

	return id, nil
}

func fieldError(field, code, msg string) error {
	ve := &schema.ValidationError{}
	ve.Add(field, code, msg)

	return ve
}
