package assets

import (
	"testing"

	"github.com/Faultbox/showroom/internal/assets/assetstest"
)

func buildGLB(t *testing.T, offset [3]float32) []byte {
	t.Helper()
	return assetstest.TriangleGLB(offset)
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	return assetstest.Gzip(data)
}
