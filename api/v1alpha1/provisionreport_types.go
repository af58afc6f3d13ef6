package v1alpha1

// ProvisionReport records one provisioning run: the inputs it was given and,
// per stage, what the host was asked to do and what it answered.
//
// +kubebuilder:object:root=true
// +kubebuilder:printcolumn:name="Phase",type=string,JSONPath=`.status.phase`
type ProvisionReport struct {
	TypeMeta `json:",inline" yaml:",inline"`

	// +optional
	ObjectMeta `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	// Spec echoes the inputs of the run.
	Spec ProvisionReportSpec `json:"spec" yaml:"spec"`

	// Status is filled in as the stages run.
	// +optional
	Status ProvisionReportStatus `json:"status,omitempty" yaml:"status,omitempty"`
}

// ProvisionReportSpec holds the inputs of a run.
type ProvisionReportSpec struct {
	// ConfigPath is the configuration document the run read.
	ConfigPath string `json:"configPath" yaml:"configPath"`

	// ComputeSystemID is the identity the compute system was created under.
	ComputeSystemID string `json:"computeSystemID" yaml:"computeSystemID"`

	// Policy is the continuation policy: "continue" or "stop".
	Policy string `json:"policy" yaml:"policy"`

	// WaitTimeout bounds the compute system wait, e.g. "5m0s".
	// "infinite" means no bound.
	WaitTimeout string `json:"waitTimeout" yaml:"waitTimeout"`

	// DeviceHost reports whether the device host stage was enabled.
	DeviceHost bool `json:"deviceHost" yaml:"deviceHost"`
}

// ProvisionReportStatus is the observed result of a run.
type ProvisionReportStatus struct {
	// +optional
	Phase ReportPhase `json:"phase,omitempty" yaml:"phase,omitempty"`

	// Stages holds one result per stage, in pipeline order.
	// +optional
	Stages []StageResult `json:"stages,omitempty" yaml:"stages,omitempty"`

	// +optional
	Conditions []Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`

	// ReleaseErrors lists handles that failed to release at the end of the
	// run. They never change the phase.
	// +optional
	ReleaseErrors []string `json:"releaseErrors,omitempty" yaml:"releaseErrors,omitempty"`

	// +optional
	CompletionTime Time `json:"completionTime,omitempty" yaml:"completionTime,omitempty"`
}

// ReportPhase is the overall state of a run.
type ReportPhase string

const (
	// ReportPhasePending means the run has not started.
	ReportPhasePending ReportPhase = "Pending"

	// ReportPhaseProvisioning means stages are running.
	ReportPhaseProvisioning ReportPhase = "Provisioning"

	// ReportPhaseCompleted means every enabled stage succeeded.
	ReportPhaseCompleted ReportPhase = "Completed"

	// ReportPhaseDegraded means some stages failed and the run carried on.
	ReportPhaseDegraded ReportPhase = "Degraded"

	// ReportPhaseAborted means a stage failed and the stop policy ended the run.
	ReportPhaseAborted ReportPhase = "Aborted"
)

// StageName names a pipeline stage.
type StageName string

// Stages, in pipeline order.
const (
	StageNetwork       StageName = "Network"
	StageEndpoint      StageName = "Endpoint"
	StageComputeSystem StageName = "ComputeSystem"
	StageDeviceHost    StageName = "DeviceHost"
)

// Stages lists every stage in pipeline order.
var Stages = []StageName{StageNetwork, StageEndpoint, StageComputeSystem, StageDeviceHost}

// StageOutcome is how a stage ended.
type StageOutcome string

const (
	// StageSucceeded means the stage produced its handle.
	StageSucceeded StageOutcome = "Succeeded"

	// StageFailed means the host, or the document, refused.
	StageFailed StageOutcome = "Failed"

	// StageUnavailable means an entry point the stage needs is not bound.
	StageUnavailable StageOutcome = "Unavailable"

	// StageSkipped means the stage was disabled or the run stopped before it.
	StageSkipped StageOutcome = "Skipped"
)

// StageResult is the outcome of one stage.
type StageResult struct {
	Name    StageName    `json:"name" yaml:"name"`
	Outcome StageOutcome `json:"outcome" yaml:"outcome"`

	// +optional
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	// Calls lists every host entry point the stage invoked, in order.
	// +optional
	Calls []HostCall `json:"calls,omitempty" yaml:"calls,omitempty"`

	// Result is the host's result document, when it returned one.
	// +optional
	Result string `json:"result,omitempty" yaml:"result,omitempty"`
}

// HostCall is one invocation of a host entry point.
type HostCall struct {
	Entry string `json:"entry" yaml:"entry"`

	// HResult is the status code in 0x%08X form.
	HResult string `json:"hresult" yaml:"hresult"`

	// +optional
	ErrorRecord string `json:"errorRecord,omitempty" yaml:"errorRecord,omitempty"`
}

// Condition types.
const (
	ConditionNetworkReady       = "NetworkReady"
	ConditionEndpointReady      = "EndpointReady"
	ConditionComputeSystemReady = "ComputeSystemReady"
	ConditionDeviceHostReady    = "DeviceHostReady"

	// ConditionReady is True when every enabled stage succeeded.
	ConditionReady = "Ready"
)
