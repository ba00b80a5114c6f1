package rl

//go:generate msgp
type Row struct {
	Cells []string `json:"c" msg:"c"`
}
