package config

import (
	"bytes"
	"io/ioutil"
	"log"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// PostProcess is a set of assimp-style post processing steps.
type PostProcess uint32

const (
	CalculateTangentSpace PostProcess = 1 << iota
	JoinIdenticalVertices
	MakeLeftHanded
	Triangulate
	RemoveComponent
	GenerateNormals
	GenerateSmoothNormals
	SplitLargeMeshes
	PreTransformVertices
	LimitBoneWeights
	ValidateDataStructure
	ImproveCacheLocality
	RemoveRedundantMaterials
	FixInFacingNormals
	PopulateArmatureData
	SortByPrimitiveType
	FindDegenerates
	FindInvalidData
	GenerateUVCoords
	TransformUVCoords
	FindInstances
	OptimizeMeshes
	OptimizeGraph
	FlipUVs
	FlipWindingOrder
	SplitByBoneCount
	Debone
	GlobalScale
	EmbedTextures
	ForceGenerateNormals
	DropNormals
	GenerateBoundingBoxes
)

var postProcessNames = map[string]PostProcess{
	"CalculateTangentSpace":    CalculateTangentSpace,
	"JoinIdenticalVertices":    JoinIdenticalVertices,
	"MakeLeftHanded":           MakeLeftHanded,
	"Triangulate":              Triangulate,
	"RemoveComponent":          RemoveComponent,
	"GenerateNormals":          GenerateNormals,
	"GenerateSmoothNormals":    GenerateSmoothNormals,
	"SplitLargeMeshes":         SplitLargeMeshes,
	"PreTransformVertices":     PreTransformVertices,
	"LimitBoneWeights":         LimitBoneWeights,
	"ValidateDataStructure":    ValidateDataStructure,
	"ImproveCacheLocality":     ImproveCacheLocality,
	"RemoveRedundantMaterials": RemoveRedundantMaterials,
	"FixInFacingNormals":       FixInFacingNormals,
	"SortByPrimitiveType":      SortByPrimitiveType,
	"FindDegenerates":          FindDegenerates,
	"FindInvalidData":          FindInvalidData,
	"GenerateUVCoords":         GenerateUVCoords,
	"TransformUVCoords":        TransformUVCoords,
	"FindInstances":            FindInstances,
	"OptimizeMeshes":           OptimizeMeshes,
	"OptimizeGraph":            OptimizeGraph,
	"FlipUVs":                  FlipUVs,
	"FlipWindingOrder":         FlipWindingOrder,
	"SplitByBoneCount":         SplitByBoneCount,
	"Debone":                   Debone,
	"GlobalScale":              GlobalScale,
	"EmbedTextures":            EmbedTextures,
	"ForceGenerateNormals":     ForceGenerateNormals,
	"DropNormals":              DropNormals,
	"GenerateBoundingBoxes":    GenerateBoundingBoxes,
}

func (p PostProcess) Has(step PostProcess) bool {
	return p&step != 0
}

func (p PostProcess) String() string {
	names := make([]string, 0)
	for name, step := range postProcessNames {
		if p.Has(step) {
			names = append(names, name)
		}
	}
	return strings.Join(names, "|")
}

// ParsePostProcess reads one flag name per line. Unknown names are
// logged and contribute nothing.
func ParsePostProcess(text []byte) (PostProcess, error) {
	lines, err := ParseLines(text)
	if err != nil {
		return 0, err
	}
	var result PostProcess
	for _, l := range lines {
		name := strings.TrimSpace(l.Key)
		if step, ok := postProcessNames[name]; ok {
			result |= step
		} else {
			log.Printf("[config] Unknown post process flag %q on line %d", name, l.Number)
		}
	}
	return result, nil
}

// LoadPostProcess reads a flag file, creating it empty when missing.
func LoadPostProcess(path string) (PostProcess, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if f, err := os.Create(path); err == nil {
				f.Close()
			}
			return 0, nil
		}
		return 0, errors.Wrapf(err, "Failed to open flags file %q", path)
	}
	return ParsePostProcess(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
}
