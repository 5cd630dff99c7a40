package api

import (
	"github.com/absmach/fedkit/pkg/api"
	"github.com/absmach/fedkit/pkg/model"
	"github.com/absmach/fedkit/train"
	apiutil "github.com/absmach/supermq/api/http/util"
)

type listReq struct {
	offset, limit uint64
}

func (req listReq) validate() error {
	if req.limit == 0 || req.limit > api.MaxLimitSize {
		return apiutil.ErrLimitSize
	}

	return nil
}

type entityReq struct {
	id int64
}

func (req entityReq) validate() error {
	if req.id <= 0 {
		return apiutil.ErrMissingID
	}

	return nil
}

type advertisedReq struct {
	train.AdvertisedData
}

func (req advertisedReq) validate() error {
	return req.Validate()
}

type serverDataReq struct {
	train.PostServerData
}

func (req serverDataReq) validate() error {
	return req.Validate()
}

type uploadReq struct {
	train.UploadData
}

func (req uploadReq) validate() error {
	return req.Validate()
}

type fileReq struct {
	id   int64
	kind model.FileKind
	data []byte
}

func (req fileReq) validate() error {
	if req.id <= 0 {
		return apiutil.ErrMissingID
	}
	if !req.kind.Valid() {
		return train.ErrInvalidFileKind
	}

	return nil
}
