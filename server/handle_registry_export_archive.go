package server

import (
	"bytes"

	"github.com/bluesky-social/indigo/carstore"
	"github.com/haileyok/seneca/internal/helpers"
	blocks "github.com/ipfs/go-block-format"
	"github.com/ipfs/go-cid"
	cbor "github.com/ipfs/go-ipld-cbor"
	"github.com/ipld/go-car"
	"github.com/labstack/echo/v4"
	"github.com/multiformats/go-multihash"
)

// handleExportArchive streams the whole registry as a car file. The root is a
// dag-cbor index linking every record block, followed by one raw block per
// stored record.
func (s *Server) handleExportArchive(e echo.Context) error {
	ctx := e.Request().Context()

	schemas, err := s.schemas.ListSchemas(ctx)
	if err != nil {
		s.logger.Error("error listing schemas", "error", err)
		return helpers.ServerError(e, nil)
	}

	credentials, err := s.credentials.ListCredentials(ctx)
	if err != nil {
		s.logger.Error("error listing credentials", "error", err)
		return helpers.ServerError(e, nil)
	}

	var blks []blocks.Block
	schemaLinks := []cid.Cid{}
	credentialLinks := []cid.Cid{}

	for _, entry := range schemas {
		c, err := entry.CID()
		if err != nil {
			return helpers.ServerError(e, nil)
		}

		blk, err := blocks.NewBlockWithCid(entry.Raw, c)
		if err != nil {
			return helpers.ServerError(e, nil)
		}

		blks = append(blks, blk)
		schemaLinks = append(schemaLinks, c)
	}

	for _, entry := range credentials {
		c, err := entry.CID()
		if err != nil {
			return helpers.ServerError(e, nil)
		}

		blk, err := blocks.NewBlockWithCid(entry.Raw, c)
		if err != nil {
			return helpers.ServerError(e, nil)
		}

		blks = append(blks, blk)
		credentialLinks = append(credentialLinks, c)
	}

	schemaNonce, err := s.schemas.Nonce(ctx)
	if err != nil {
		return helpers.ServerError(e, nil)
	}

	credentialNonce, err := s.credentials.Nonce(ctx)
	if err != nil {
		return helpers.ServerError(e, nil)
	}

	root, err := cbor.WrapObject(map[string]any{
		"registry":        s.config.Did,
		"schemas":         schemaLinks,
		"credentials":     credentialLinks,
		"schemaNonce":     schemaNonce,
		"credentialNonce": credentialNonce,
	}, multihash.SHA2_256, -1)
	if err != nil {
		s.logger.Error("error building archive index", "error", err)
		return helpers.ServerError(e, nil)
	}

	hb, err := cbor.DumpObject(&car.CarHeader{
		Roots:   []cid.Cid{root.Cid()},
		Version: 1,
	})
	if err != nil {
		s.logger.Error("error encoding car header", "error", err)
		return helpers.ServerError(e, nil)
	}

	buf := new(bytes.Buffer)

	if _, err := carstore.LdWrite(buf, hb); err != nil {
		s.logger.Error("error writing to car", "error", err)
		return helpers.ServerError(e, nil)
	}

	if _, err := carstore.LdWrite(buf, root.Cid().Bytes(), root.RawData()); err != nil {
		return helpers.ServerError(e, nil)
	}

	for _, blk := range blks {
		if _, err := carstore.LdWrite(buf, blk.Cid().Bytes(), blk.RawData()); err != nil {
			return helpers.ServerError(e, nil)
		}
	}

	return e.Stream(200, "application/vnd.ipld.car", bytes.NewReader(buf.Bytes()))
}
