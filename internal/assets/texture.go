package assets

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/showroom/internal/engine/texture"
	"github.com/Faultbox/showroom/internal/scene"
)

// emissiveIntensity is the glow strength of self-illuminating pieces.
const emissiveIntensity = 1

// buildMaterial runs the texture stage. Diffuse and alpha maps are fetched
// concurrently; either failing fails the stage.
func (p *Pipeline) buildMaterial(ctx context.Context, sub *submission) (*scene.Material, error) {
	req := sub.req
	if req.Emissive {
		return scene.NewEmissiveMaterial(emissiveIntensity), nil
	}

	mat := scene.NewBasicMaterial()
	if !req.HasTextures() {
		return mat, nil
	}

	p.setStage(sub, StageTexture)
	g, gctx := errgroup.WithContext(ctx)
	if req.DiffuseTexturePath != "" {
		g.Go(func() (err error) {
			mat.Map, err = p.loadTexture(gctx, sub, req.DiffuseTexturePath)
			return err
		})
	}
	if req.AlphaTexturePath != "" {
		g.Go(func() (err error) {
			mat.AlphaMap, err = p.loadTexture(gctx, sub, req.AlphaTexturePath)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if mat.AlphaMap != nil {
		mat.Transparent = true
		mat.DoubleSided = true
	}
	return mat, nil
}

// loadTexture fetches and decodes one image. Sampling is set up for crisp
// flat surfaces: no mipmaps, linear filtering, maximum anisotropy.
func (p *Pipeline) loadTexture(ctx context.Context, sub *submission, path string) (*scene.Texture, error) {
	data, err := p.fetch(ctx, sub, StageTexture, path)
	if err != nil {
		return nil, err
	}
	img, err := texture.Decode(data)
	if err != nil {
		return nil, decodeError(sub.req.ID, path, err)
	}
	return &scene.Texture{
		Path:            path,
		Image:           img,
		GenerateMipmaps: false,
		MinFilter:       scene.FilterLinear,
		MagFilter:       scene.FilterLinear,
		Anisotropy:      p.maxAnisotropy(),
	}, nil
}
