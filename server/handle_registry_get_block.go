package server

import (
	"errors"

	"github.com/Azure/go-autorest/autorest/to"
	"github.com/haileyok/seneca/blockstore"
	"github.com/haileyok/seneca/internal/helpers"
	"github.com/ipfs/go-cid"
	"github.com/labstack/echo/v4"
)

func (s *Server) handleGetBlock(e echo.Context) error {
	ctx := e.Request().Context()

	cstr := e.QueryParam("cid")
	if cstr == "" {
		return helpers.InputError(e, nil)
	}

	c, err := cid.Decode(cstr)
	if err != nil {
		return helpers.InputError(e, to.StringPtr("InvalidCid"))
	}

	bucket, err := s.blocks.Bucket(ctx, c)
	if errors.Is(err, blockstore.ErrNotFound) {
		return helpers.NotFound(e, to.StringPtr("BlockNotFound"))
	}
	if err != nil {
		s.logger.Error("error getting block", "cid", cstr, "error", err)
		return helpers.ServerError(e, nil)
	}

	blk, err := s.blocks.Get(ctx, c)
	if err != nil {
		s.logger.Error("error getting block", "cid", cstr, "error", err)
		return helpers.ServerError(e, nil)
	}

	e.Response().Header().Set("x-seneca-bucket", bucket)

	return e.Blob(200, "application/octet-stream", blk.RawData())
}
