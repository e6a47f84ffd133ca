package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// State 一次查询执行的状态
// 以消息序列的形式在步骤之间传递，最后一条消息即为最终回答
type State struct {
	Messages []string // 消息序列，首条为用户问题
}

// NewState 创建以用户问题开始的执行状态
func NewState(question string) *State {
	return &State{Messages: []string{question}}
}

// Append 追加一条消息
func (s *State) Append(message string) {
	s.Messages = append(s.Messages, message)
}

// LastMessage 返回最后一条消息
func (s *State) LastMessage() string {
	if len(s.Messages) == 0 {
		return ""
	}
	return s.Messages[len(s.Messages)-1]
}

// Question 返回用户问题（首条消息）
func (s *State) Question() string {
	if len(s.Messages) == 0 {
		return ""
	}
	return s.Messages[0]
}

// Step 查询执行的一个步骤
// 步骤读取并修改执行状态，按流水线定义的顺序依次运行
type Step interface {
	// Name 返回步骤名称
	Name() string
	// Run 执行步骤逻辑
	Run(ctx context.Context, state *State) error
}

// Pipeline 查询执行流水线
// 每次调用生成独立的执行ID，步骤顺序固定，互不共享执行状态
type Pipeline struct {
	steps  []Step
	logger *logrus.Logger
}

// PipelineOption 流水线选项函数
type PipelineOption func(*Pipeline)

// WithPipelineLogger 设置日志记录器
func WithPipelineLogger(logger *logrus.Logger) PipelineOption {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPipeline 创建查询执行流水线
func NewPipeline(steps []Step, opts ...PipelineOption) (*Pipeline, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("pipeline requires at least one step")
	}

	p := &Pipeline{
		steps:  steps,
		logger: logrus.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Invoke 执行一次查询
// 返回流水线结束时的最后一条消息作为回答
func (p *Pipeline) Invoke(ctx context.Context, question string) (string, error) {
	if question == "" {
		return "", fmt.Errorf("question cannot be empty")
	}

	// 每次调用独立的执行ID，调用之间不共享任何状态
	runID := uuid.New().String()
	state := NewState(question)

	for _, step := range p.steps {
		p.logger.WithFields(logrus.Fields{
			"run_id": runID,
			"step":   step.Name(),
		}).Debug("Running workflow step")

		if err := step.Run(ctx, state); err != nil {
			return "", fmt.Errorf("step %s failed: %v", step.Name(), err)
		}
	}

	return state.LastMessage(), nil
}

// Steps 返回流水线的步骤名称序列
func (p *Pipeline) Steps() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
