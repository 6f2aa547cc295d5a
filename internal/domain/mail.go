package domain

const MailTypeRunFinished = "run_finished"

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type RunFinishedMailData struct {
	RunID       string  `json:"runID"`
	Status      string  `json:"status"`
	BestScore   float64 `json:"bestScore"`
	Generations int     `json:"generations"`
	StopReason  string  `json:"stopReason"`
	Error       string  `json:"error"`
}
