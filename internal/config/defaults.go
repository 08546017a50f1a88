package config

const (
	defaultSearchRoot       = "~/meg"
	defaultOutputRoot       = "~/meg-bids/BIDS"
	defaultMappingPath      = "~/meg-bids/subjects.csv"
	defaultLogDir           = "~/.local/share/megbids/logs"
	defaultNamePattern      = `.*_example-REST_.*_01\.ds`
	defaultTask             = "rest"
	defaultFormat           = "FIF"
	defaultConverterCommand = "mne-bids-bridge"
	defaultTimeoutSeconds   = 1800
	defaultAnatDirName      = "anat"
	defaultImageExt         = ".mri"
	defaultTransformSuffix  = "-trans.fif"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultFailureLog       = "bids.log"
)

// Subject binding modes.
const (
	SubjectMatchStructural = "structural"
	SubjectMatchSubstring  = "substring"
)

// Policies for subjects whose anatomical image or transform is absent.
const (
	MissingPolicySkip  = "skip"
	MissingPolicyFatal = "fatal"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SearchRoot:  defaultSearchRoot,
			OutputRoot:  defaultOutputRoot,
			MappingPath: defaultMappingPath,
			LogDir:      defaultLogDir,
		},
		Discovery: Discovery{
			NamePattern:  defaultNamePattern,
			SubjectMatch: SubjectMatchStructural,
		},
		Conversion: Conversion{
			Task:             defaultTask,
			Format:           defaultFormat,
			ConverterCommand: defaultConverterCommand,
			TimeoutSeconds:   defaultTimeoutSeconds,
			Overwrite:        true,
		},
		Anatomy: Anatomy{
			DirName:         defaultAnatDirName,
			ImageExt:        defaultImageExt,
			TransformSuffix: defaultTransformSuffix,
			MissingPolicy:   MissingPolicySkip,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			FailureLog: defaultFailureLog,
		},
	}
}
