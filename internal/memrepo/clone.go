package memrepo

// clone copia el valor apuntado. Los métodos de lectura devuelven copias,
// igual que un adaptador real que escanea filas: mutar lo leído no toca el
// estado hasta pasar por un método de escritura.
func clone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
