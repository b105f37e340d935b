package metadata

// Image flavor values carried in the third position of ImageType for
// VL Whole Slide Microscopy images.
const (
	FlavorVolume    = "VOLUME"
	FlavorLabel     = "LABEL"
	FlavorOverview  = "OVERVIEW"
	FlavorThumbnail = "THUMBNAIL"
)

// Monochrome2 is the photometric interpretation of single-sample grayscale
// channel images in multiplexed microscopy acquisitions.
const Monochrome2 = "MONOCHROME2"

// OpticalPath identifies one illumination/detection channel of a microscopy
// image.
type OpticalPath struct {
	Identifier  string
	Description string
}

// Instance is one DICOM image/object. The fields below are the core schema
// the engine operates on; every other naturalized attribute is preserved in
// Extra so that nothing the server sent is dropped.
type Instance struct {
	SOPInstanceUID            string
	SOPClassUID               string
	StudyInstanceUID          string
	SeriesInstanceUID         string
	ImageID                   string
	Modality                  string
	Rows                      int
	Columns                   int
	SamplesPerPixel           int
	PhotometricInterpretation string
	ImageType                 []string
	FrameOfReferenceUID       string
	ContainerIdentifier       string
	NumberOfFrames            int
	OpticalPaths              []OpticalPath
	Extra                     Dataset
}

// coreKeywords are the attributes promoted out of the naturalized dataset
// into typed Instance fields.
var coreKeywords = map[string]struct{}{
	"SOPInstanceUID":            {},
	"SOPClassUID":               {},
	"StudyInstanceUID":          {},
	"SeriesInstanceUID":         {},
	"Modality":                  {},
	"Rows":                      {},
	"Columns":                   {},
	"SamplesPerPixel":           {},
	"PhotometricInterpretation": {},
	"ImageType":                 {},
	"FrameOfReferenceUID":       {},
	"ContainerIdentifier":       {},
	"NumberOfFrames":            {},
	"OpticalPathSequence":       {},
}

// NewInstance builds an Instance from a naturalized dataset, promoting the
// core schema and keeping everything else in Extra.
func NewInstance(ds Dataset) *Instance {
	inst := &Instance{Extra: Dataset{}}
	inst.Apply(ds)
	return inst
}

// Apply merges a naturalized dataset onto the instance: core attributes
// overwrite the typed fields, everything else merges into Extra with scalar
// overwrite and shallow map merge.
func (i *Instance) Apply(ds Dataset) {
	if i.Extra == nil {
		i.Extra = Dataset{}
	}
	extra := Dataset{}
	for k, v := range ds {
		if _, core := coreKeywords[k]; !core {
			extra[k] = v
			continue
		}
		switch k {
		case "SOPInstanceUID":
			i.SOPInstanceUID = ds.String(k)
		case "SOPClassUID":
			i.SOPClassUID = ds.String(k)
		case "StudyInstanceUID":
			i.StudyInstanceUID = ds.String(k)
		case "SeriesInstanceUID":
			i.SeriesInstanceUID = ds.String(k)
		case "Modality":
			i.Modality = ds.String(k)
		case "Rows":
			i.Rows = ds.Int(k)
		case "Columns":
			i.Columns = ds.Int(k)
		case "SamplesPerPixel":
			i.SamplesPerPixel = ds.Int(k)
		case "PhotometricInterpretation":
			i.PhotometricInterpretation = ds.String(k)
		case "ImageType":
			i.ImageType = ds.Strings(k)
		case "FrameOfReferenceUID":
			i.FrameOfReferenceUID = ds.String(k)
		case "ContainerIdentifier":
			i.ContainerIdentifier = ds.String(k)
		case "NumberOfFrames":
			i.NumberOfFrames = ds.Int(k)
		case "OpticalPathSequence":
			i.OpticalPaths = opticalPaths(ds.Datasets(k))
		}
	}
	i.Extra.Merge(extra)
}

func opticalPaths(items []Dataset) []OpticalPath {
	paths := make([]OpticalPath, 0, len(items))
	for _, item := range items {
		paths = append(paths, OpticalPath{
			Identifier:  item.String("OpticalPathIdentifier"),
			Description: item.String("OpticalPathDescription"),
		})
	}
	return paths
}

// Flavor returns the image flavor (VOLUME, LABEL, OVERVIEW, THUMBNAIL) from
// the third ImageType value, or "" when the instance carries none.
func (i *Instance) Flavor() string {
	if len(i.ImageType) < 3 {
		return ""
	}
	return i.ImageType[2]
}

// IsMonochrome reports whether the instance is a single-sample grayscale
// image, the classification that separates multiplexed channel images from
// RGB acquisitions.
func (i *Instance) IsMonochrome() bool {
	return i.SamplesPerPixel == 1 && i.PhotometricInterpretation == Monochrome2
}

// OpticalPathIdentifier returns the identifier of the instance's first
// optical path, or "" when the sequence is absent.
func (i *Instance) OpticalPathIdentifier() string {
	if len(i.OpticalPaths) == 0 {
		return ""
	}
	return i.OpticalPaths[0].Identifier
}
