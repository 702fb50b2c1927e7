package udagramcli

// Service identifies a binary in logs and metrics.
type Service struct {
	Name    string
	Version string
}

func NewService(name string) Service {
	return Service{
		Name:    name,
		Version: CommitHash(),
	}
}

// Dimensions are the metric dimensions attached to everything service reports.
func (s Service) Dimensions() map[DimensionName]string {
	return map[DimensionName]string{
		ServiceNameDimension:    s.Name,
		ServiceVersionDimension: s.Version,
	}
}
